package pickuplocation

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
	ErrNotFound = errors.New("pickup location not found")
	ErrConflict = errors.New("pickup location was modified concurrently")
)

// Repository encapsulates read/write access for pickup locations.
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

func applyNameFilter(q *bun.SelectQuery, name string) *bun.SelectQuery {
	name = strings.TrimSpace(name)
	if name == "" {
		return q
	}
	return q.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
}

// Find returns the requested page of locations whose name contains the
// given text, ordered by name.
func (r *Repository) Find(ctx context.Context, name string, page database.Pagination) ([]*entity.PickupLocation, error) {
	var locations []*entity.PickupLocation
	q := r.reader.NewSelect().Model(&locations)
	q = applyNameFilter(q, name)
	q = q.OrderExpr("pl.name ASC")
	q = page.Apply(q)

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return locations, nil
}

// Count returns the number of locations matching the same filter Find uses.
func (r *Repository) Count(ctx context.Context, name string) (int64, error) {
	q := r.reader.NewSelect().Model((*entity.PickupLocation)(nil))
	q = applyNameFilter(q, name)

	n, err := q.Count(ctx)
	return int64(n), err
}

// GetByID fetches a location by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.PickupLocation, error) {
	location := new(entity.PickupLocation)
	err := r.reader.NewSelect().Model(location).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return location, nil
}

// GetFirst returns the first location in name order, the default offered to
// new orders.
func (r *Repository) GetFirst(ctx context.Context) (*entity.PickupLocation, error) {
	location := new(entity.PickupLocation)
	err := r.reader.NewSelect().
		Model(location).
		OrderExpr("pl.name ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return location, nil
}

// Create persists a new location at version 1.
func (r *Repository) Create(ctx context.Context, location *entity.PickupLocation) error {
	if location == nil {
		return errors.New("nil pickup location")
	}
	location.Version = 1
	_, err := r.writer.NewInsert().Model(location).Exec(ctx)
	return err
}

// Update writes the location under an optimistic version check.
func (r *Repository) Update(ctx context.Context, location *entity.PickupLocation) error {
	if location == nil {
		return errors.New("nil pickup location")
	}

	current := location.Version
	location.Version = current + 1
	location.UpdatedAt = time.Now()

	res, err := r.writer.NewUpdate().
		Model(location).
		Column("version", "name", "updated_at").
		Where("id = ?", location.ID).
		Where("version = ?", current).
		Exec(ctx)
	if err != nil {
		location.Version = current
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		location.Version = current
		exists, err := r.writer.NewSelect().
			Model((*entity.PickupLocation)(nil)).
			Where("id = ?", location.ID).
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

// Delete removes a location.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.writer.NewDelete().
		Model((*entity.PickupLocation)(nil)).
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
