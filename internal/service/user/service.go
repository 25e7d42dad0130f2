package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	repo "github.com/briochehq/brioche/internal/repository/user"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/briochehq/brioche/service/user")

const minPasswordLength = 6

// Store is the repository surface the service depends on.
type Store interface {
	Find(ctx context.Context, text string, page database.Pagination) ([]*entity.User, error)
	Count(ctx context.Context, text string) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id int64) error
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// Service encapsulates business logic around staff accounts.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Repository, logger: p.Logger}
}

// Find returns one page of users matching the search text together with the
// total count under the same filter.
func (s *Service) Find(ctx context.Context, text string, page database.Pagination) ([]*entity.User, int64, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Find")
	defer span.End()

	users, err := s.store.Find(ctx, text, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list users", errorbank.WithCause(err))
	}

	total, err := s.store.Count(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to count users", errorbank.WithCause(err))
	}

	return users, total, nil
}

// Get retrieves a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("user not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}
	return user, nil
}

// Create validates the account, hashes the password and persists the user.
func (s *Service) Create(ctx context.Context, user *entity.User, password string) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}
	user.PasswordHash = hash

	ctx, span := serviceTracer.Start(ctx, "UserService.Create", trace.WithAttributes(attribute.String("user.email", user.Email)))
	defer span.End()

	if err := s.store.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return errorbank.Conflict("email already in use")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}
	return nil
}

// Update writes the user under its optimistic version check. A blank
// password keeps the stored hash; locked accounts reject any modification.
func (s *Service) Update(ctx context.Context, user *entity.User, password string) error {
	if err := validateUser(user); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "UserService.Update", trace.WithAttributes(attribute.Int64("user.id", user.ID)))
	defer span.End()

	current, err := s.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	if current.Locked {
		return errorbank.Conflict("user is locked and cannot be modified")
	}

	if password == "" {
		user.PasswordHash = current.PasswordHash
	} else {
		if err := validatePassword(password); err != nil {
			return err
		}
		hash, err := hashPassword(password)
		if err != nil {
			return errorbank.Internal("failed to hash password", errorbank.WithCause(err))
		}
		user.PasswordHash = hash
	}

	if err := s.store.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return errorbank.NotFound("user not found")
		case errors.Is(err, repo.ErrConflict):
			return errorbank.Conflict("the user was modified by someone else")
		case database.IsUniqueViolation(err):
			return errorbank.Conflict("email already in use")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update user", errorbank.WithCause(err))
	}
	return nil
}

// Delete removes a user. Locked accounts and the acting user's own account
// are protected.
func (s *Service) Delete(ctx context.Context, actor *entity.User, id int64) error {
	if actor != nil && actor.ID == id {
		return errorbank.Conflict("you cannot delete your own account")
	}

	ctx, span := serviceTracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Locked {
		return errorbank.Conflict("user is locked and cannot be modified")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("user not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete user", errorbank.WithCause(err))
	}
	return nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(user *entity.User, password string) bool {
	if user == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func validateUser(user *entity.User) error {
	if user == nil {
		return errorbank.BadRequest("user payload is required")
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		return errorbank.BadRequest("email is required")
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return errorbank.BadRequest("email address is invalid")
	}
	if strings.TrimSpace(user.FirstName) == "" {
		return errorbank.BadRequest("first name is required")
	}
	if strings.TrimSpace(user.LastName) == "" {
		return errorbank.BadRequest("last name is required")
	}
	if !entity.ValidRole(user.Role) {
		return errorbank.BadRequest(fmt.Sprintf("unknown role: %s", user.Role))
	}
	return nil
}

// validatePassword enforces six or more characters mixing digits, lowercase
// and uppercase letters.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errorbank.BadRequest("password needs 6 or more characters")
	}
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit || !hasLower || !hasUpper {
		return errorbank.BadRequest("password must mix digits, lowercase and uppercase letters")
	}
	return nil
}
