package entity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// OrderState enumerates the lifecycle states of a bakery order.
type OrderState string

const (
	OrderStateNew       OrderState = "new"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateReady     OrderState = "ready"
	OrderStateDelivered OrderState = "delivered"
	OrderStateProblem   OrderState = "problem"
	OrderStateCancelled OrderState = "cancelled"
)

// OrderStates lists every valid order state.
var OrderStates = []OrderState{
	OrderStateNew,
	OrderStateConfirmed,
	OrderStateReady,
	OrderStateDelivered,
	OrderStateProblem,
	OrderStateCancelled,
}

// NotAvailableStates returns the states of orders that still need work before
// pickup: every state except ready, delivered, and cancelled.
func NotAvailableStates() []OrderState {
	return []OrderState{OrderStateNew, OrderStateConfirmed, OrderStateProblem}
}

// Valid reports whether s is one of the declared order states.
func (s OrderState) Valid() bool {
	for _, state := range OrderStates {
		if s == state {
			return true
		}
	}
	return false
}

// DisplayName renders the state for humans: "new" becomes "New".
func (s OrderState) DisplayName() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Order is a bakery order together with its customer, line items, and
// history. Orders carry an optimistic-locking version; the rows they own
// (customer, items, history) are written only inside the order save.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID               int64           `bun:",pk,autoincrement"`
	Version          int64           `bun:"version"`
	DueDate          time.Time       `bun:"due_date,nullzero"`
	DueTime          string          `bun:"due_time"`
	State            OrderState      `bun:"state"`
	CustomerID       int64           `bun:"customer_id"`
	Customer         *Customer       `bun:"rel:belongs-to,join:customer_id=id"`
	PickupLocationID int64           `bun:"pickup_location_id,nullzero"`
	PickupLocation   *PickupLocation `bun:"rel:belongs-to,join:pickup_location_id=id"`
	CreatedByID      int64           `bun:"created_by_id,nullzero"`
	CreatedBy        *User           `bun:"rel:belongs-to,join:created_by_id=id"`
	Items            []*OrderItem    `bun:"rel:has-many,join:id=order_id"`
	History          []*HistoryItem  `bun:"rel:has-many,join:id=order_id"`
	CreatedAt        time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `bun:"updated_at,nullzero"`
}

// OrderItem is one product line on an order.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID        int64    `bun:",pk,autoincrement"`
	OrderID   int64    `bun:"order_id"`
	ProductID int64    `bun:"product_id"`
	Product   *Product `bun:"rel:belongs-to,join:product_id=id"`
	Quantity  int      `bun:"quantity"`
	Comment   string   `bun:"comment"`
}

// HistoryItem records one event on an order's timeline.
type HistoryItem struct {
	bun.BaseModel `bun:"table:order_history,alias:oh"`

	ID          int64      `bun:",pk,autoincrement"`
	OrderID     int64      `bun:"order_id"`
	NewState    OrderState `bun:"new_state"`
	Message     string     `bun:"message"`
	CreatedByID int64      `bun:"created_by_id,nullzero"`
	CreatedBy   *User      `bun:"rel:belongs-to,join:created_by_id=id"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// NewOrder builds an unsaved order owned by createdBy: state new, an empty
// customer, and an initial "Order placed" history entry stamped at now.
func NewOrder(createdBy *User, now time.Time) *Order {
	order := &Order{
		State:    OrderStateNew,
		Customer: &Customer{},
		Items:    []*OrderItem{},
	}
	if createdBy != nil {
		order.CreatedByID = createdBy.ID
		order.CreatedBy = createdBy
	}
	order.AddHistoryItem(createdBy, "Order placed", now)
	return order
}

// AddHistoryItem appends a history entry stamped with the order's current
// state. New entries have a zero ID until the order is saved.
func (o *Order) AddHistoryItem(actor *User, message string, at time.Time) {
	item := &HistoryItem{
		OrderID:   o.ID,
		NewState:  o.State,
		Message:   message,
		CreatedAt: at,
	}
	if actor != nil {
		item.CreatedByID = actor.ID
		item.CreatedBy = actor
	}
	o.History = append(o.History, item)
}

// ChangeState moves the order to state and records the transition in the
// history. No history entry is written when the state does not actually
// change or when either side of the transition is empty.
func (o *Order) ChangeState(actor *User, state OrderState, at time.Time) {
	recordHistory := o.State != state && o.State != "" && state != ""
	o.State = state
	if recordHistory {
		o.AddHistoryItem(actor, "Order "+state.DisplayName(), at)
	}
}

// TotalPrice sums quantity times unit price over all items, in cents.
// Items whose product is not loaded contribute nothing.
func (o *Order) TotalPrice() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.TotalPrice()
	}
	return total
}

// TotalPrice is the line total in cents.
func (i *OrderItem) TotalPrice() int64 {
	if i.Product == nil {
		return 0
	}
	return int64(i.Quantity) * i.Product.Price
}
