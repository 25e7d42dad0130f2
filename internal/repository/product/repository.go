package product

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
	ErrNotFound = errors.New("product not found")
	ErrConflict = errors.New("product was modified concurrently")
)

// Repository encapsulates read/write access for catalog products.
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

// Find returns the requested page of products whose name contains the given
// text, case-insensitive, ordered by name. A blank filter matches everything.
func (r *Repository) Find(ctx context.Context, name string, page database.Pagination) ([]*entity.Product, error) {
	var products []*entity.Product
	q := r.reader.NewSelect().Model(&products)
	q = applyNameFilter(q, name)
	q = q.OrderExpr("p.name ASC")
	q = page.Apply(q)

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return products, nil
}

// Count returns the number of products matching the same filter Find uses.
func (r *Repository) Count(ctx context.Context, name string) (int64, error) {
	q := r.reader.NewSelect().Model((*entity.Product)(nil))
	q = applyNameFilter(q, name)

	n, err := q.Count(ctx)
	return int64(n), err
}

// GetByID fetches a product by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create persists a new product at version 1.
func (r *Repository) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	product.Version = 1
	_, err := r.writer.NewInsert().Model(product).Exec(ctx)
	return err
}

// Update writes the product under an optimistic version check.
func (r *Repository) Update(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}

	current := product.Version
	product.Version = current + 1
	product.UpdatedAt = time.Now()

	res, err := r.writer.NewUpdate().
		Model(product).
		Column("version", "name", "price", "updated_at").
		Where("id = ?", product.ID).
		Where("version = ?", current).
		Exec(ctx)
	if err != nil {
		product.Version = current
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		product.Version = current
		exists, err := r.writer.NewSelect().
			Model((*entity.Product)(nil)).
			Where("id = ?", product.ID).
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

// Delete removes a product. Products referenced by order items are guarded
// by a RESTRICT foreign key; callers translate that violation.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.writer.NewDelete().
		Model((*entity.Product)(nil)).
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
