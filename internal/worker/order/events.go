package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/entity"
	"github.com/briochehq/brioche/internal/messaging"
	"github.com/briochehq/brioche/internal/notifier"
	ordersvc "github.com/briochehq/brioche/internal/service/order"
	"github.com/briochehq/brioche/internal/worker"
)

var workerTracer = otel.Tracer("github.com/briochehq/brioche/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventsHandler sets up a worker handler that relays order lifecycle
// events to the staff notifier. Notification failures are logged, not retried;
// a flaky bot must not stall the event stream.
func NewOrderEventsHandler(logger *zap.Logger, client messaging.Client, staff notifier.Notifier) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		span.SetAttributes(
			attribute.String("order.event", event.Event),
			attribute.Int64("order.id", event.OrderID),
		)
		logger.Info("order event processed",
			zap.String("event", event.Event),
			zap.Int64("id", event.OrderID),
			zap.String("state", event.State),
		)

		text := StaffMessage(event)
		if text == "" {
			return nil
		}
		if err := staff.Notify(ctx, text); err != nil {
			logger.Warn("staff notification failed",
				zap.Int64("id", event.OrderID),
				zap.Error(err),
			)
			span.RecordError(err)
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   client.Topic(),
		Handler: handler,
	}
}

// StaffMessage renders the staff-chat line for an order event. Events that do
// not warrant a ping return an empty string.
func StaffMessage(event ordersvc.OrderEvent) string {
	who := event.CustomerName
	if who == "" {
		who = "unnamed customer"
	}

	switch event.Event {
	case ordersvc.EventOrderCreated:
		return fmt.Sprintf("New order #%d for %s, due %s %s", event.OrderID, who, event.DueDate, event.DueTime)
	case ordersvc.EventOrderStateChanged:
		switch entity.OrderState(event.State) {
		case entity.OrderStateReady:
			return fmt.Sprintf("Order #%d for %s is ready for pickup", event.OrderID, who)
		case entity.OrderStateDelivered:
			return fmt.Sprintf("Order #%d for %s was picked up", event.OrderID, who)
		case entity.OrderStateCancelled:
			return fmt.Sprintf("Order #%d for %s was cancelled", event.OrderID, who)
		case entity.OrderStateProblem:
			return fmt.Sprintf("Order #%d for %s needs attention", event.OrderID, who)
		default:
			return fmt.Sprintf("Order #%d for %s is now %s", event.OrderID, who, entity.OrderState(event.State).DisplayName())
		}
	default:
		return ""
	}
}
