package pickuplocation

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	repo "github.com/briochehq/brioche/internal/repository/pickuplocation"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/briochehq/brioche/service/pickuplocation")

// Store is the repository surface the service depends on.
type Store interface {
	Find(ctx context.Context, name string, page database.Pagination) ([]*entity.PickupLocation, error)
	Count(ctx context.Context, name string) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.PickupLocation, error)
	GetFirst(ctx context.Context) (*entity.PickupLocation, error)
	Create(ctx context.Context, location *entity.PickupLocation) error
	Update(ctx context.Context, location *entity.PickupLocation) error
	Delete(ctx context.Context, id int64) error
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// Service encapsulates business logic around pickup locations.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Repository, logger: p.Logger}
}

// CreateNew returns an empty, unsaved location for an editor to fill in.
func (s *Service) CreateNew() *entity.PickupLocation {
	return entity.NewPickupLocation()
}

// Find returns one page of locations matching name together with the total
// count under the same filter.
func (s *Service) Find(ctx context.Context, name string, page database.Pagination) ([]*entity.PickupLocation, int64, error) {
	ctx, span := serviceTracer.Start(ctx, "PickupLocationService.Find")
	defer span.End()

	locations, err := s.store.Find(ctx, name, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list pickup locations", errorbank.WithCause(err))
	}

	total, err := s.store.Count(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to count pickup locations", errorbank.WithCause(err))
	}

	return locations, total, nil
}

// Get retrieves a location by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.PickupLocation, error) {
	ctx, span := serviceTracer.Start(ctx, "PickupLocationService.Get", trace.WithAttributes(attribute.Int64("location.id", id)))
	defer span.End()

	location, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("pickup location not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load pickup location", errorbank.WithCause(err))
	}
	return location, nil
}

// GetDefault returns the first location in name order, the one new orders
// are preset with.
func (s *Service) GetDefault(ctx context.Context) (*entity.PickupLocation, error) {
	ctx, span := serviceTracer.Start(ctx, "PickupLocationService.GetDefault")
	defer span.End()

	location, err := s.store.GetFirst(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("no pickup locations configured")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load default pickup location", errorbank.WithCause(err))
	}
	return location, nil
}

// Create validates and persists a new location.
func (s *Service) Create(ctx context.Context, location *entity.PickupLocation) error {
	if err := validateLocation(location); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "PickupLocationService.Create", trace.WithAttributes(attribute.String("location.name", location.Name)))
	defer span.End()

	if err := s.store.Create(ctx, location); err != nil {
		if database.IsUniqueViolation(err) {
			return errorbank.Conflict("pickup location name already in use")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to create pickup location", errorbank.WithCause(err))
	}
	return nil
}

// Update validates and writes the location under its optimistic version check.
func (s *Service) Update(ctx context.Context, location *entity.PickupLocation) error {
	if err := validateLocation(location); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "PickupLocationService.Update", trace.WithAttributes(attribute.Int64("location.id", location.ID)))
	defer span.End()

	if err := s.store.Update(ctx, location); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return errorbank.NotFound("pickup location not found")
		case errors.Is(err, repo.ErrConflict):
			return errorbank.Conflict("the pickup location was modified by someone else")
		case database.IsUniqueViolation(err):
			return errorbank.Conflict("pickup location name already in use")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update pickup location", errorbank.WithCause(err))
	}
	return nil
}

// Delete removes a location.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "PickupLocationService.Delete", trace.WithAttributes(attribute.Int64("location.id", id)))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("pickup location not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete pickup location", errorbank.WithCause(err))
	}
	return nil
}

func validateLocation(location *entity.PickupLocation) error {
	if location == nil {
		return errorbank.BadRequest("pickup location payload is required")
	}
	if strings.TrimSpace(location.Name) == "" {
		return errorbank.BadRequest("pickup location name is required")
	}
	return nil
}
