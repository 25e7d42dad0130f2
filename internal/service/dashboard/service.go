package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/dto"
	"github.com/briochehq/brioche/internal/entity"
	repo "github.com/briochehq/brioche/internal/repository/order"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/briochehq/brioche/service/dashboard")

const (
	monthsPerYear = 12
	salesYears    = 3
)

// Store is the read-only slice of the order repository the dashboard uses.
type Store interface {
	CountByDueDate(ctx context.Context, day time.Time) (int64, error)
	CountByDueDateAndStates(ctx context.Context, day time.Time, states []entity.OrderState) (int64, error)
	CountByState(ctx context.Context, state entity.OrderState) (int64, error)
	CountPerDay(ctx context.Context, state entity.OrderState, year int, month time.Month) ([]repo.DayCount, error)
	CountPerMonth(ctx context.Context, state entity.OrderState, year int) ([]repo.MonthCount, error)
	CountPerMonthLastThreeYears(ctx context.Context, state entity.OrderState, year int) ([]repo.YearMonthCount, error)
	CountPerProduct(ctx context.Context, state entity.OrderState, year int, month time.Month) ([]repo.ProductCount, error)
}

// Params collects the dashboard service dependencies.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// Service assembles the staff dashboard from order statistics. Results are
// recomputed on every request; nothing here is cached.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService builds the dashboard service.
func NewService(p Params) *Service {
	return &Service{
		store:  p.Repository,
		logger: p.Logger,
		now:    time.Now,
	}
}

// GetDashboardData collects delivery stats, per-day and per-month delivery
// series, the three-year sales grid and per-product totals for the requested
// month and year.
func (s *Service) GetDashboardData(ctx context.Context, month time.Month, year int) (*dto.DashboardData, error) {
	ctx, span := serviceTracer.Start(ctx, "DashboardService.GetDashboardData", trace.WithAttributes(
		attribute.Int("dashboard.month", int(month)),
		attribute.Int("dashboard.year", year),
	))
	defer span.End()

	days, err := daysInMonth(year, month)
	if err != nil {
		return nil, errorbank.BadRequest(err.Error())
	}

	stats, err := s.deliveryStats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery stats failed")
		return nil, errorbank.Internal("failed to compute delivery stats", errorbank.WithCause(err))
	}

	perDay, err := s.store.CountPerDay(ctx, entity.OrderStateDelivered, year, month)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to count deliveries per day", errorbank.WithCause(err))
	}

	perMonth, err := s.store.CountPerMonth(ctx, entity.OrderStateDelivered, year)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to count deliveries per month", errorbank.WithCause(err))
	}

	sales, err := s.store.CountPerMonthLastThreeYears(ctx, entity.OrderStateDelivered, year)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load sales history", errorbank.WithCause(err))
	}

	perProduct, err := s.store.CountPerProduct(ctx, entity.OrderStateDelivered, year, month)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to count deliveries per product", errorbank.WithCause(err))
	}

	return &dto.DashboardData{
		DeliveryStats:       stats,
		DeliveriesThisMonth: denseCounts(days, dayBuckets(perDay)),
		DeliveriesThisYear:  denseCounts(monthsPerYear, monthBuckets(perMonth)),
		SalesPerMonth:       salesGrid(year, month, sales),
		ProductDeliveries:   productDeliveries(perProduct),
	}, nil
}

func (s *Service) deliveryStats(ctx context.Context) (dto.DeliveryStats, error) {
	var stats dto.DeliveryStats

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	var err error
	if stats.DueToday, err = s.store.CountByDueDate(ctx, today); err != nil {
		return stats, err
	}
	if stats.DueTomorrow, err = s.store.CountByDueDate(ctx, tomorrow); err != nil {
		return stats, err
	}
	delivered := []entity.OrderState{entity.OrderStateDelivered}
	if stats.DeliveredToday, err = s.store.CountByDueDateAndStates(ctx, today, delivered); err != nil {
		return stats, err
	}
	if stats.NotAvailableToday, err = s.store.CountByDueDateAndStates(ctx, today, entity.NotAvailableStates()); err != nil {
		return stats, err
	}
	if stats.NewOrders, err = s.store.CountByState(ctx, entity.OrderStateNew); err != nil {
		return stats, err
	}
	return stats, nil
}

// bucket is a sparse 1-based (index, count) pair produced by the grouped
// queries.
type bucket struct {
	index int
	count int64
}

func dayBuckets(rows []repo.DayCount) []bucket {
	out := make([]bucket, 0, len(rows))
	for _, row := range rows {
		out = append(out, bucket{index: row.Day, count: row.Count})
	}
	return out
}

func monthBuckets(rows []repo.MonthCount) []bucket {
	out := make([]bucket, 0, len(rows))
	for _, row := range rows {
		out = append(out, bucket{index: row.Month, count: row.Count})
	}
	return out
}

// denseCounts spreads sparse rows over a nil-filled slice of the given
// length. Nil entries encode as JSON null, which is how the charts mark
// buckets without data. Indexes must lie in [1, length]; anything else is a
// bug in the producing query and panics like any out-of-range slice write.
func denseCounts(length int, rows []bucket) []*int64 {
	out := make([]*int64, length)
	for _, row := range rows {
		count := row.count
		out[row.index-1] = &count
	}
	return out
}

// salesGrid arranges three years of monthly delivery counts into a 3x12
// grid. Row 0 is the requested year, row 1 the year before, row 2 the year
// before that. The cell for the requested month in row 0 stays nil since the
// month is still accumulating; rows outside the three-year window are
// dropped.
func salesGrid(year int, month time.Month, rows []repo.YearMonthCount) [][]*int64 {
	grid := make([][]*int64, salesYears)
	for i := range grid {
		grid[i] = make([]*int64, monthsPerYear)
	}

	for _, row := range rows {
		rowIdx := year - row.Year
		colIdx := row.Month - 1
		if rowIdx == 0 && colIdx == int(month)-1 {
			continue
		}
		if rowIdx < 0 || rowIdx >= salesYears || colIdx < 0 || colIdx >= monthsPerYear {
			continue
		}
		count := row.Count
		grid[rowIdx][colIdx] = &count
	}
	return grid
}

func productDeliveries(rows []repo.ProductCount) []dto.ProductDelivery {
	out := make([]dto.ProductDelivery, 0, len(rows))
	for _, row := range rows {
		if row.Product == nil {
			continue
		}
		out = append(out, dto.ProductDelivery{
			Product: dto.ProductResponse{
				ID:        row.Product.ID,
				Version:   row.Product.Version,
				Name:      row.Product.Name,
				Price:     row.Product.Price,
				CreatedAt: row.Product.CreatedAt,
				UpdatedAt: row.Product.UpdatedAt,
			},
			Quantity: row.Quantity,
		})
	}
	return out
}

func daysInMonth(year int, month time.Month) (int, error) {
	if month < time.January || month > time.December {
		return 0, fmt.Errorf("month out of range: %d", int(month))
	}
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day(), nil
}
