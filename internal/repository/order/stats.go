package order

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/briochehq/brioche/internal/entity"
)

// DayCount is one (day-of-month, count) row from a grouped query.
type DayCount struct {
	Day   int   `bun:"day"`
	Count int64 `bun:"count"`
}

// MonthCount is one (month, count) row from a grouped query.
type MonthCount struct {
	Month int   `bun:"month"`
	Count int64 `bun:"count"`
}

// YearMonthCount is one (year, month, count) row from a grouped query.
type YearMonthCount struct {
	Year  int   `bun:"year"`
	Month int   `bun:"month"`
	Count int64 `bun:"count"`
}

// ProductCount pairs a product with an aggregated quantity.
type ProductCount struct {
	Product  *entity.Product
	Quantity int64
}

// CountByDueDate counts orders due exactly on day, regardless of state.
func (r *Repository) CountByDueDate(ctx context.Context, day time.Time) (int64, error) {
	n, err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Where("due_date = ?", dateOf(day)).
		Count(ctx)
	return int64(n), err
}

// CountByDueDateAndStates counts orders due on day whose state is one of states.
func (r *Repository) CountByDueDateAndStates(ctx context.Context, day time.Time, states []entity.OrderState) (int64, error) {
	if len(states) == 0 {
		return 0, nil
	}
	n, err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Where("due_date = ?", dateOf(day)).
		Where("state IN (?)", bun.In(states)).
		Count(ctx)
	return int64(n), err
}

// CountByState counts orders in the given state across all dates.
func (r *Repository) CountByState(ctx context.Context, state entity.OrderState) (int64, error) {
	n, err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Where("state = ?", state).
		Count(ctx)
	return int64(n), err
}

// CountPerDay groups orders in the given state by day of month for one
// month. Days without orders produce no row.
func (r *Repository) CountPerDay(ctx context.Context, state entity.OrderState, year int, month time.Month) ([]DayCount, error) {
	var rows []DayCount
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("EXTRACT(DAY FROM due_date) AS day").
		ColumnExpr("COUNT(*) AS count").
		Where("state = ?", state).
		Where("EXTRACT(YEAR FROM due_date) = ?", year).
		Where("EXTRACT(MONTH FROM due_date) = ?", int(month)).
		GroupExpr("EXTRACT(DAY FROM due_date)").
		OrderExpr("day ASC").
		Scan(ctx, &rows)
	return rows, err
}

// CountPerMonth groups orders in the given state by month for one year.
// Months without orders produce no row.
func (r *Repository) CountPerMonth(ctx context.Context, state entity.OrderState, year int) ([]MonthCount, error) {
	var rows []MonthCount
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("EXTRACT(MONTH FROM due_date) AS month").
		ColumnExpr("COUNT(*) AS count").
		Where("state = ?", state).
		Where("EXTRACT(YEAR FROM due_date) = ?", year).
		GroupExpr("EXTRACT(MONTH FROM due_date)").
		OrderExpr("month ASC").
		Scan(ctx, &rows)
	return rows, err
}

// CountPerMonthLastThreeYears groups orders in the given state by year and
// month across the requested year and the two before it.
func (r *Repository) CountPerMonthLastThreeYears(ctx context.Context, state entity.OrderState, year int) ([]YearMonthCount, error) {
	var rows []YearMonthCount
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("EXTRACT(YEAR FROM due_date) AS year").
		ColumnExpr("EXTRACT(MONTH FROM due_date) AS month").
		ColumnExpr("COUNT(*) AS count").
		Where("state = ?", state).
		Where("EXTRACT(YEAR FROM due_date) BETWEEN ? AND ?", year-2, year).
		GroupExpr("EXTRACT(YEAR FROM due_date), EXTRACT(MONTH FROM due_date)").
		OrderExpr("year ASC, month ASC").
		Scan(ctx, &rows)
	return rows, err
}

// CountPerProduct sums item quantities per product over orders in the given
// state and month, ordered by product id. The caller relies on that order.
func (r *Repository) CountPerProduct(ctx context.Context, state entity.OrderState, year int, month time.Month) ([]ProductCount, error) {
	var rows []struct {
		ProductID int64 `bun:"product_id"`
		Quantity  int64 `bun:"quantity"`
	}
	err := r.reader.NewSelect().
		Model((*entity.OrderItem)(nil)).
		ColumnExpr("oi.product_id AS product_id").
		ColumnExpr("SUM(oi.quantity) AS quantity").
		Join("JOIN orders AS o ON o.id = oi.order_id").
		Where("o.state = ?", state).
		Where("EXTRACT(YEAR FROM o.due_date) = ?", year).
		Where("EXTRACT(MONTH FROM o.due_date) = ?", int(month)).
		GroupExpr("oi.product_id").
		OrderExpr("oi.product_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}

	var products []*entity.Product
	if err := r.reader.NewSelect().
		Model(&products).
		Where("p.id IN (?)", bun.In(ids)).
		Scan(ctx); err != nil {
		return nil, err
	}

	byID := make(map[int64]*entity.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	out := make([]ProductCount, 0, len(rows))
	for _, row := range rows {
		product, ok := byID[row.ProductID]
		if !ok {
			continue
		}
		out = append(out, ProductCount{Product: product, Quantity: row.Quantity})
	}
	return out, nil
}
