package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/cache"
	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	"github.com/briochehq/brioche/internal/messaging"
	repo "github.com/briochehq/brioche/internal/repository/order"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var testNow = time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)

type fakeStore struct {
	orders map[int64]*entity.Order

	findFilter  *repo.Filter
	countFilter *repo.Filter
	saved       []*entity.Order
	deleted     []int64
	getCalls    int
	saveErr     error
	deleteErr   error
	total       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[int64]*entity.Order)}
}

func (f *fakeStore) Find(ctx context.Context, fl repo.Filter, page database.Pagination) ([]*entity.Order, error) {
	f.findFilter = &fl
	return nil, nil
}

func (f *fakeStore) Count(ctx context.Context, fl repo.Filter) (int64, error) {
	f.countFilter = &fl
	return f.total, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	f.getCalls++
	order, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return order, nil
}

func (f *fakeStore) FindStartingFrom(ctx context.Context, day time.Time) ([]*entity.Order, error) {
	return nil, nil
}

func (f *fakeStore) Save(ctx context.Context, order *entity.Order) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if order.ID == 0 {
		order.ID = int64(len(f.orders) + 1)
	}
	f.orders[order.ID] = order
	f.saved = append(f.saved, order)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	keys     []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, key []byte, value []byte) error {
	f.keys = append(f.keys, string(key))
	f.payloads = append(f.payloads, value)
	return nil
}

func (f *fakePublisher) Consume(ctx context.Context, handler messaging.Handler) error {
	return nil
}

func (f *fakePublisher) Topic() string { return "orders.events" }

type fakeCache struct {
	values map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := f.values[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func newTestService(store Store) *Service {
	return &Service{
		store:  store,
		logger: zap.NewNop(),
		now:    func() time.Time { return testNow },
	}
}

func validFiller(actor *entity.User, order *entity.Order) error {
	order.Customer.FullName = "Ann Bananas"
	order.Customer.PhoneNumber = "555-0101"
	order.Items = []*entity.OrderItem{{ProductID: 3, Quantity: 2}}
	return nil
}

func existingOrder(id int64) *entity.Order {
	return &entity.Order{
		ID:       id,
		Version:  1,
		State:    entity.OrderStateNew,
		DueDate:  time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC),
		DueTime:  "11:30",
		Customer: &entity.Customer{ID: 10, FullName: "Ann Bananas"},
		Items:    []*entity.OrderItem{{ID: 1, ProductID: 3, Quantity: 2}},
	}
}

func TestCreateNewDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	actor := &entity.User{ID: 5}

	order := svc.CreateNew(actor)

	wantDue := time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !order.DueDate.Equal(wantDue) {
		t.Errorf("DueDate = %v, want %v", order.DueDate, wantDue)
	}
	if order.DueTime != "16:00" {
		t.Errorf("DueTime = %q, want 16:00", order.DueTime)
	}
	if order.State != entity.OrderStateNew {
		t.Errorf("State = %q, want %q", order.State, entity.OrderStateNew)
	}
	if len(order.History) != 1 || order.History[0].Message != "Order placed" {
		t.Errorf("history = %+v, want single 'Order placed' entry", order.History)
	}
	if len(store.saved) != 0 {
		t.Error("CreateNew must not persist anything")
	}
}

func TestSaveOrderCreatesWhenIDNil(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := newTestService(store)
	svc.publisher = publisher
	svc.messaging.enabled = true

	order, err := svc.SaveOrder(context.Background(), &entity.User{ID: 5}, nil, validFiller)
	if err != nil {
		t.Fatalf("SaveOrder returned error: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved %d orders, want 1", len(store.saved))
	}
	if order.Customer.FullName != "Ann Bananas" {
		t.Errorf("customer = %q, want filler value", order.Customer.FullName)
	}

	if len(publisher.payloads) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.payloads))
	}
	var event OrderEvent
	if err := json.Unmarshal(publisher.payloads[0], &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Event != EventOrderCreated {
		t.Errorf("event = %q, want %q", event.Event, EventOrderCreated)
	}
	if event.CustomerName != "Ann Bananas" {
		t.Errorf("event customer = %q, want Ann Bananas", event.CustomerName)
	}
}

func TestSaveOrderFillerErrorAborts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.SaveOrder(context.Background(), nil, nil, func(actor *entity.User, order *entity.Order) error {
		return errorbank.BadRequest("incomplete order")
	})
	if err == nil {
		t.Fatal("SaveOrder accepted failing filler")
	}
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Errorf("error kind = %v, want bad request", err)
	}
	if len(store.saved) != 0 {
		t.Error("failed filler must not reach the store")
	}
}

func TestSaveOrderValidation(t *testing.T) {
	tests := []struct {
		name     string
		fill     Filler
		wantKind errorbank.Kind
	}{
		{
			name: "missing customer name",
			fill: func(actor *entity.User, order *entity.Order) error {
				order.Items = []*entity.OrderItem{{ProductID: 1, Quantity: 1}}
				return nil
			},
			wantKind: errorbank.KindBadRequest,
		},
		{
			name: "bad due time",
			fill: func(actor *entity.User, order *entity.Order) error {
				order.Customer.FullName = "Ann"
				order.DueTime = "4pm"
				order.Items = []*entity.OrderItem{{ProductID: 1, Quantity: 1}}
				return nil
			},
			wantKind: errorbank.KindBadRequest,
		},
		{
			name: "no items",
			fill: func(actor *entity.User, order *entity.Order) error {
				order.Customer.FullName = "Ann"
				return nil
			},
			wantKind: errorbank.KindUnprocessableEntity,
		},
		{
			name: "zero quantity",
			fill: func(actor *entity.User, order *entity.Order) error {
				order.Customer.FullName = "Ann"
				order.Items = []*entity.OrderItem{{ProductID: 1, Quantity: 0}}
				return nil
			},
			wantKind: errorbank.KindUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store)

			_, err := svc.SaveOrder(context.Background(), nil, nil, tt.fill)
			if err == nil {
				t.Fatal("SaveOrder accepted invalid order")
			}
			if !errorbank.IsKind(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %s", err, tt.wantKind)
			}
			if len(store.saved) != 0 {
				t.Error("invalid order must not be saved")
			}
		})
	}
}

func TestSaveOrderUpdatesExisting(t *testing.T) {
	store := newFakeStore()
	store.orders[42] = existingOrder(42)
	publisher := &fakePublisher{}
	svc := newTestService(store)
	svc.publisher = publisher
	svc.messaging.enabled = true

	id := int64(42)
	order, err := svc.SaveOrder(context.Background(), nil, &id, func(actor *entity.User, order *entity.Order) error {
		order.DueTime = "09:15"
		return nil
	})
	if err != nil {
		t.Fatalf("SaveOrder returned error: %v", err)
	}

	if order.DueTime != "09:15" {
		t.Errorf("DueTime = %q, want 09:15", order.DueTime)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d orders, want 1", len(store.saved))
	}

	var event OrderEvent
	if err := json.Unmarshal(publisher.payloads[0], &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Event != EventOrderUpdated {
		t.Errorf("event = %q, want %q", event.Event, EventOrderUpdated)
	}
}

func TestSaveOrderUnknownIDNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	id := int64(99)
	_, err := svc.SaveOrder(context.Background(), nil, &id, validFiller)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestChangeStateRecordsTransition(t *testing.T) {
	store := newFakeStore()
	store.orders[42] = existingOrder(42)
	publisher := &fakePublisher{}
	svc := newTestService(store)
	svc.publisher = publisher
	svc.messaging.enabled = true

	order, err := svc.ChangeState(context.Background(), &entity.User{ID: 2}, 42, entity.OrderStateConfirmed)
	if err != nil {
		t.Fatalf("ChangeState returned error: %v", err)
	}

	if order.State != entity.OrderStateConfirmed {
		t.Errorf("State = %q, want confirmed", order.State)
	}
	if len(order.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(order.History))
	}
	if order.History[0].Message != "Order Confirmed" {
		t.Errorf("history message = %q, want 'Order Confirmed'", order.History[0].Message)
	}

	var event OrderEvent
	if err := json.Unmarshal(publisher.payloads[0], &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Event != EventOrderStateChanged {
		t.Errorf("event = %q, want %q", event.Event, EventOrderStateChanged)
	}
	if event.State != string(entity.OrderStateConfirmed) {
		t.Errorf("event state = %q, want confirmed", event.State)
	}
}

func TestChangeStateSameStateNoHistory(t *testing.T) {
	store := newFakeStore()
	store.orders[42] = existingOrder(42)
	svc := newTestService(store)

	order, err := svc.ChangeState(context.Background(), nil, 42, entity.OrderStateNew)
	if err != nil {
		t.Fatalf("ChangeState returned error: %v", err)
	}
	if len(order.History) != 0 {
		t.Errorf("len(History) = %d, want 0 for no-op transition", len(order.History))
	}
	if len(store.saved) != 1 {
		t.Errorf("saved %d orders, want 1", len(store.saved))
	}
}

func TestChangeStateRejectsUnknownState(t *testing.T) {
	store := newFakeStore()
	store.orders[42] = existingOrder(42)
	svc := newTestService(store)

	_, err := svc.ChangeState(context.Background(), nil, 42, "soggy")
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Errorf("error = %v, want bad request", err)
	}
	if store.getCalls != 0 {
		t.Error("unknown state must be rejected before loading")
	}
}

func TestAddComment(t *testing.T) {
	store := newFakeStore()
	store.orders[42] = existingOrder(42)
	svc := newTestService(store)

	order, err := svc.AddComment(context.Background(), &entity.User{ID: 3}, 42, "ring the bell twice")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}

	if len(order.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(order.History))
	}
	entry := order.History[0]
	if entry.Message != "ring the bell twice" {
		t.Errorf("message = %q", entry.Message)
	}
	if entry.NewState != entity.OrderStateNew {
		t.Errorf("history state = %q, want current order state", entry.NewState)
	}
	if len(store.saved) != 1 {
		t.Errorf("saved %d orders, want 1", len(store.saved))
	}
}

func TestAddCommentRejectsBlank(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.AddComment(context.Background(), nil, 42, "   ")
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Errorf("error = %v, want bad request", err)
	}
}

func TestSaveConflictMapsToConflict(t *testing.T) {
	store := newFakeStore()
	store.orders[42] = existingOrder(42)
	store.saveErr = repo.ErrConflict
	svc := newTestService(store)

	_, err := svc.AddComment(context.Background(), nil, 42, "late change")
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestFindSharesFilterWithCount(t *testing.T) {
	date := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	filters := []repo.Filter{
		{},
		{Name: "ann"},
		{DueAfter: &date},
		{Name: "ann", DueAfter: &date},
	}

	for _, filter := range filters {
		store := newFakeStore()
		store.total = 7
		svc := newTestService(store)

		_, total, err := svc.Find(context.Background(), filter, database.Pagination{Page: 1, Size: 20})
		if err != nil {
			t.Fatalf("Find returned error: %v", err)
		}
		if total != 7 {
			t.Errorf("total = %d, want 7", total)
		}
		if store.findFilter == nil || store.countFilter == nil {
			t.Fatal("Find must consult both find and count")
		}
		if *store.findFilter != *store.countFilter {
			t.Errorf("find filter %+v != count filter %+v", *store.findFilter, *store.countFilter)
		}
	}
}

func TestGetPrefersCache(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	svc.cache = newFakeCache()

	cached := existingOrder(7)
	payload, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := svc.cache.Set(context.Background(), "orders:7", payload, 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	order, err := svc.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if order.ID != 7 {
		t.Errorf("ID = %d, want 7", order.ID)
	}
	if store.getCalls != 0 {
		t.Error("cache hit must not touch the store")
	}
}

func TestGetFallsBackToStore(t *testing.T) {
	store := newFakeStore()
	store.orders[7] = existingOrder(7)
	svc := newTestService(store)
	fc := newFakeCache()
	svc.cache = fc

	order, err := svc.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if order.ID != 7 {
		t.Errorf("ID = %d, want 7", order.ID)
	}
	if _, ok := fc.values["orders:7"]; !ok {
		t.Error("loaded order should be cached for the next read")
	}
}

func TestDeleteEvictsCache(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	fc := newFakeCache()
	svc.cache = fc
	fc.values["orders:42"] = []byte("{}")

	if err := svc.Delete(context.Background(), 42); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 42 {
		t.Errorf("deleted = %v, want [42]", store.deleted)
	}
	if _, ok := fc.values["orders:42"]; ok {
		t.Error("cache entry should be evicted")
	}
}

func TestDeleteNotFound(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = repo.ErrNotFound
	svc := newTestService(store)

	err := svc.Delete(context.Background(), 99)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestSaveOrderWrapsUnknownStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.orders[42] = existingOrder(42)
	store.saveErr = errors.New("connection reset")
	svc := newTestService(store)

	_, err := svc.AddComment(context.Background(), nil, 42, "note")
	if !errorbank.IsKind(err, errorbank.KindInternal) {
		t.Errorf("error = %v, want internal", err)
	}
}
