package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/entity"
)

// Event kinds emitted on the order stream.
const (
	EventOrderCreated      = "order.created"
	EventOrderUpdated      = "order.updated"
	EventOrderStateChanged = "order.state_changed"
)

// OrderEvent is the message published for order lifecycle changes. Workers
// consume it to notify staff.
type OrderEvent struct {
	Event        string    `json:"event"`
	OrderID      int64     `json:"order_id"`
	State        string    `json:"state"`
	CustomerName string    `json:"customer_name"`
	DueDate      string    `json:"due_date"`
	DueTime      string    `json:"due_time"`
	TotalPrice   int64     `json:"total_price"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// publishEvent emits an order event. Publish failures are logged and never
// fail the request that triggered them.
func (s *Service) publishEvent(ctx context.Context, kind string, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}

	event := OrderEvent{
		Event:      kind,
		OrderID:    order.ID,
		State:      string(order.State),
		DueDate:    order.DueDate.Format("2006-01-02"),
		DueTime:    order.DueTime,
		TotalPrice: order.TotalPrice(),
		OccurredAt: s.now(),
	}
	if order.Customer != nil {
		event.CustomerName = order.Customer.FullName
	}

	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.String("event", kind), zap.Error(err))
		}
		return
	}

	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.String("event", kind), zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
}
