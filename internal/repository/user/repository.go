package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("user was modified concurrently")
)

// Repository encapsulates read/write access for staff accounts.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// applySearchFilter matches the text against email, first name, last name,
// or role, case-insensitive substring on any of them.
func applySearchFilter(q *bun.SelectQuery, text string) *bun.SelectQuery {
	text = strings.TrimSpace(text)
	if text == "" {
		return q
	}

	pattern := "%" + text + "%"
	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereOr("LOWER(email) LIKE LOWER(?)", pattern).
			WhereOr("LOWER(first_name) LIKE LOWER(?)", pattern).
			WhereOr("LOWER(last_name) LIKE LOWER(?)", pattern).
			WhereOr("LOWER(role) LIKE LOWER(?)", pattern)
	})
}

// Find returns the requested page of users matching the search text,
// ordered by email.
func (r *Repository) Find(ctx context.Context, text string, page database.Pagination) ([]*entity.User, error) {
	var users []*entity.User
	q := r.reader.NewSelect().Model(&users)
	q = applySearchFilter(q, text)
	q = q.OrderExpr("u.email ASC")
	q = page.Apply(q)

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the same filter Find uses.
func (r *Repository) Count(ctx context.Context, text string) (int64, error) {
	q := r.reader.NewSelect().Model((*entity.User)(nil))
	q = applySearchFilter(q, text)

	n, err := q.Count(ctx)
	return int64(n), err
}

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create persists a new user at version 1.
func (r *Repository) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	user.Version = 1
	_, err := r.writer.NewInsert().Model(user).Exec(ctx)
	return err
}

// Update writes the user under an optimistic version check.
func (r *Repository) Update(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("nil user")
	}

	current := user.Version
	user.Version = current + 1
	user.UpdatedAt = time.Now()

	res, err := r.writer.NewUpdate().
		Model(user).
		Column("version", "email", "password_hash", "first_name", "last_name", "role", "locked", "updated_at").
		Where("id = ?", user.ID).
		Where("version = ?", current).
		Exec(ctx)
	if err != nil {
		user.Version = current
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		user.Version = current
		exists, err := r.writer.NewSelect().
			Model((*entity.User)(nil)).
			Where("id = ?", user.ID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// Delete removes a user. Orders they created keep their history; the
// foreign keys null out the reference.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.writer.NewDelete().
		Model((*entity.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
