package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
)

var repoTracer = otel.Tracer("github.com/briochehq/brioche/repository/order")

// Sentinel errors surfaced to the service layer.
var (
	ErrNotFound = errors.New("order not found")
	ErrConflict = errors.New("order was modified concurrently")
)

// Repository encapsulates read/write access for orders.
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

const customerFilterJoin = "JOIN customers AS filter_customer ON filter_customer.id = o.customer_id"

// applyFilter attaches the WHERE clauses for f to q. Find and Count share
// this builder so their predicates cannot drift apart.
func applyFilter(q *bun.SelectQuery, f Filter) *bun.SelectQuery {
	switch f.mode() {
	case filterModeNameAndDueAfter:
		q = q.Join(customerFilterJoin).
			Where("LOWER(filter_customer.full_name) LIKE LOWER(?)", "%"+f.Name+"%").
			Where("o.due_date > ?", dateOf(*f.DueAfter))
	case filterModeName:
		q = q.Join(customerFilterJoin).
			Where("LOWER(filter_customer.full_name) LIKE LOWER(?)", "%"+f.Name+"%")
	case filterModeDueAfter:
		q = q.Where("o.due_date > ?", dateOf(*f.DueAfter))
	}
	return q
}

func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

func sortItems(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("oi.id ASC")
}

func sortHistory(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("oh.id ASC")
}

// Find returns the requested page of orders matching f, ordered by due date,
// due time, and id, with customer, location, and items loaded.
func (r *Repository) Find(ctx context.Context, f Filter, page database.Pagination) ([]*entity.Order, error) {
	f = f.normalize()

	ctx, span := repoTracer.Start(ctx, "OrderRepository.Find")
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().
		Model(&orders).
		Relation("Customer").
		Relation("PickupLocation").
		Relation("Items", sortItems).
		Relation("Items.Product")
	q = applyFilter(q, f)
	q = q.OrderExpr("o.due_date ASC, o.due_time ASC, o.id ASC")
	q = page.Apply(q)

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Count returns the number of orders matching f under the same predicate
// that Find applies.
func (r *Repository) Count(ctx context.Context, f Filter) (int64, error) {
	f = f.normalize()

	ctx, span := repoTracer.Start(ctx, "OrderRepository.Count")
	defer span.End()

	q := r.reader.NewSelect().Model((*entity.Order)(nil))
	q = applyFilter(q, f)

	n, err := q.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return 0, err
	}
	return int64(n), nil
}

// GetByID fetches an order with every relation loaded, history included.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().
		Model(order).
		Relation("Customer").
		Relation("PickupLocation").
		Relation("CreatedBy").
		Relation("Items", sortItems).
		Relation("Items.Product").
		Relation("History", sortHistory).
		Relation("History.CreatedBy").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// FindStartingFrom returns orders due on day or later with customer and
// items loaded, soonest first. This feeds the upcoming-orders board.
func (r *Repository) FindStartingFrom(ctx context.Context, day time.Time) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.FindStartingFrom")
	defer span.End()

	var orders []*entity.Order
	err := r.reader.NewSelect().
		Model(&orders).
		Relation("Customer").
		Relation("Items", sortItems).
		Relation("Items.Product").
		Where("o.due_date >= ?", dateOf(day)).
		OrderExpr("o.due_date ASC, o.due_time ASC, o.id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Save persists the order and everything it owns in one transaction: the
// customer row, the order row under an optimistic version check, a wholesale
// replace of the items, and any history entries not yet stored. Any failure
// rolls the whole save back.
func (r *Repository) Save(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Save", trace.WithAttributes(attribute.Int64("order.id", order.ID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := saveCustomer(ctx, tx, order); err != nil {
			return err
		}
		if order.ID == 0 {
			if err := insertOrder(ctx, tx, order); err != nil {
				return err
			}
		} else if err := updateOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := replaceItems(ctx, tx, order); err != nil {
			return err
		}
		return insertNewHistory(ctx, tx, order)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
	}
	return err
}

func saveCustomer(ctx context.Context, tx bun.Tx, order *entity.Order) error {
	customer := order.Customer
	if customer == nil {
		return errors.New("order has no customer")
	}

	if customer.ID == 0 {
		if _, err := tx.NewInsert().Model(customer).Exec(ctx); err != nil {
			return err
		}
	} else {
		customer.UpdatedAt = time.Now()
		if _, err := tx.NewUpdate().
			Model(customer).
			Column("full_name", "phone_number", "details", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}
	}

	order.CustomerID = customer.ID
	return nil
}

func insertOrder(ctx context.Context, tx bun.Tx, order *entity.Order) error {
	order.Version = 1
	_, err := tx.NewInsert().Model(order).Exec(ctx)
	return err
}

func updateOrder(ctx context.Context, tx bun.Tx, order *entity.Order) error {
	current := order.Version
	order.Version = current + 1
	order.UpdatedAt = time.Now()

	res, err := tx.NewUpdate().
		Model(order).
		Column("version", "due_date", "due_time", "state", "customer_id", "pickup_location_id", "updated_at").
		Where("id = ?", order.ID).
		Where("version = ?", current).
		Exec(ctx)
	if err != nil {
		order.Version = current
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		order.Version = current
		exists, err := tx.NewSelect().
			Model((*entity.Order)(nil)).
			Where("id = ?", order.ID).
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

func replaceItems(ctx context.Context, tx bun.Tx, order *entity.Order) error {
	if _, err := tx.NewDelete().
		Model((*entity.OrderItem)(nil)).
		Where("order_id = ?", order.ID).
		Exec(ctx); err != nil {
		return err
	}

	if len(order.Items) == 0 {
		return nil
	}
	for _, item := range order.Items {
		item.ID = 0
		item.OrderID = order.ID
	}
	_, err := tx.NewInsert().Model(&order.Items).Exec(ctx)
	return err
}

func insertNewHistory(ctx context.Context, tx bun.Tx, order *entity.Order) error {
	var fresh []*entity.HistoryItem
	for _, item := range order.History {
		if item.ID == 0 {
			item.OrderID = order.ID
			fresh = append(fresh, item)
		}
	}

	if len(fresh) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&fresh).Exec(ctx)
	return err
}

// Delete removes the order together with the customer row it owns. Items
// and history go with it via cascading foreign keys.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var customerID int64
		err := tx.NewSelect().
			Model((*entity.Order)(nil)).
			Column("customer_id").
			Where("id = ?", id).
			Scan(ctx, &customerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*entity.Order)(nil)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		if customerID == 0 {
			return nil
		}
		_, err = tx.NewDelete().
			Model((*entity.Customer)(nil)).
			Where("id = ?", customerID).
			Exec(ctx)
		return err
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}
