package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/cache"
	"github.com/briochehq/brioche/internal/config"
	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	"github.com/briochehq/brioche/internal/messaging"
	repo "github.com/briochehq/brioche/internal/repository/order"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/briochehq/brioche/service/order")

// defaultDueTime is suggested for freshly created orders.
const defaultDueTime = "16:00"

// Store is the portion of the order repository the service depends on.
type Store interface {
	Find(ctx context.Context, f repo.Filter, page database.Pagination) ([]*entity.Order, error)
	Count(ctx context.Context, f repo.Filter) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	FindStartingFrom(ctx context.Context, day time.Time) ([]*entity.Order, error)
	Save(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id int64) error
}

// Filler mutates an order on behalf of actor before it is saved. Returning
// an error aborts the save with nothing written.
type Filler func(actor *entity.User, order *entity.Order) error

// Service encapsulates business logic around orders.
type Service struct {
	store     Store
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	now       func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:     p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
		},
		now: time.Now,
	}
}

// CreateNew returns an unsaved order owned by actor: due today at 16:00,
// state new, with the initial "Order placed" history entry. Nothing is
// persisted until the order is saved.
func (s *Service) CreateNew(actor *entity.User) *entity.Order {
	now := s.now()
	order := entity.NewOrder(actor, now)
	order.DueDate = datePart(now)
	order.DueTime = defaultDueTime
	return order
}

// SaveOrder creates (id nil) or updates an order. The filler runs after the
// order is built or loaded; a filler error aborts the save entirely. The
// write is transactional together with the history entries it produces.
func (s *Service) SaveOrder(ctx context.Context, actor *entity.User, id *int64, fill Filler) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.SaveOrder")
	defer span.End()

	var order *entity.Order
	eventKind := EventOrderCreated
	if id == nil {
		order = s.CreateNew(actor)
	} else {
		span.SetAttributes(attribute.Int64("order.id", *id))
		loaded, err := s.load(ctx, *id)
		if err != nil {
			return nil, err
		}
		order = loaded
		eventKind = EventOrderUpdated
	}

	if fill != nil {
		if err := fill(actor, order); err != nil {
			return nil, errorbank.From(err)
		}
	}

	if err := validateOrder(order); err != nil {
		return nil, err
	}

	if err := s.save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, err
	}

	s.publishEvent(ctx, eventKind, order)
	return order, nil
}

// ChangeState transitions an order. The history entry recorded by a real
// transition rides in the same save.
func (s *Service) ChangeState(ctx context.Context, actor *entity.User, id int64, state entity.OrderState) (*entity.Order, error) {
	if !state.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown order state: %s", state))
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.ChangeState", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.state", string(state)),
	))
	defer span.End()

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	order.ChangeState(actor, state, s.now())

	if err := s.save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, err
	}

	s.publishEvent(ctx, EventOrderStateChanged, order)
	return order, nil
}

// AddComment appends a history entry to the order and saves it.
func (s *Service) AddComment(ctx context.Context, actor *entity.User, id int64, message string) (*entity.Order, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errorbank.BadRequest("comment message is required")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.AddComment", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	order.AddHistoryItem(actor, message, s.now())

	if err := s.save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, err
	}
	return order, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		if s.logger != nil {
			s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	order, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := s.storeInCache(ctx, order); err != nil {
		if s.logger != nil {
			s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	return order, nil
}

// Find returns one page of orders matching f together with the total count
// under the same predicate.
func (s *Service) Find(ctx context.Context, f repo.Filter, page database.Pagination) ([]*entity.Order, int64, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Find")
	defer span.End()

	orders, err := s.store.Find(ctx, f, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}

	total, err := s.store.Count(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to count orders", errorbank.WithCause(err))
	}

	return orders, total, nil
}

// StartingToday returns orders due today or later for the upcoming board.
func (s *Service) StartingToday(ctx context.Context) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.StartingToday")
	defer span.End()

	orders, err := s.store.FindStartingFrom(ctx, datePart(s.now()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list upcoming orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Delete removes an order and drops it from the cache.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.removeFromCache(ctx, id)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

func (s *Service) save(ctx context.Context, order *entity.Order) error {
	if err := s.store.Save(ctx, order); err != nil {
		switch {
		case errors.Is(err, repo.ErrConflict):
			return errorbank.Conflict("the order was modified by someone else")
		case errors.Is(err, repo.ErrNotFound):
			return errorbank.NotFound("order not found")
		default:
			return errorbank.Internal("failed to save order", errorbank.WithCause(err))
		}
	}

	if err := s.storeInCache(ctx, order); err != nil {
		if s.logger != nil {
			s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
		}
	}
	return nil
}

func validateOrder(order *entity.Order) error {
	if order.Customer == nil || strings.TrimSpace(order.Customer.FullName) == "" {
		return errorbank.BadRequest("customer name is required")
	}
	if order.DueDate.IsZero() {
		return errorbank.BadRequest("due date is required")
	}
	if _, err := time.Parse("15:04", order.DueTime); err != nil {
		return errorbank.BadRequest("due time must use HH:MM")
	}
	if !order.State.Valid() {
		return errorbank.BadRequest(fmt.Sprintf("unknown order state: %s", order.State))
	}
	if len(order.Items) == 0 {
		return errorbank.Unprocessable("order needs at least one item")
	}
	for _, item := range order.Items {
		if item.ProductID == 0 && (item.Product == nil || item.Product.ID == 0) {
			return errorbank.Unprocessable("order item needs a product")
		}
		if item.Quantity <= 0 {
			return errorbank.Unprocessable("item quantity must be positive")
		}
	}
	return nil
}

func datePart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) removeFromCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		if s.logger != nil {
			s.logger.Warn("orders cache delete failed", zap.Int64("id", id), zap.Error(err))
		}
	}
}
