package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/messaging"
	ordersvc "github.com/briochehq/brioche/internal/service/order"
)

type fakeClient struct{}

func (fakeClient) Publish(context.Context, []byte, []byte) error    { return nil }
func (fakeClient) Consume(context.Context, messaging.Handler) error { return nil }
func (fakeClient) Topic() string                                    { return "orders.events" }

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func TestStaffMessage(t *testing.T) {
	base := ordersvc.OrderEvent{
		OrderID:      12,
		CustomerName: "Ann Bananas",
		DueDate:      "2024-03-14",
		DueTime:      "16:00",
	}

	tests := []struct {
		name  string
		event string
		state string
		want  string
	}{
		{
			name:  "created",
			event: ordersvc.EventOrderCreated,
			state: "new",
			want:  "New order #12 for Ann Bananas, due 2024-03-14 16:00",
		},
		{
			name:  "ready",
			event: ordersvc.EventOrderStateChanged,
			state: "ready",
			want:  "Order #12 for Ann Bananas is ready for pickup",
		},
		{
			name:  "delivered",
			event: ordersvc.EventOrderStateChanged,
			state: "delivered",
			want:  "Order #12 for Ann Bananas was picked up",
		},
		{
			name:  "cancelled",
			event: ordersvc.EventOrderStateChanged,
			state: "cancelled",
			want:  "Order #12 for Ann Bananas was cancelled",
		},
		{
			name:  "problem",
			event: ordersvc.EventOrderStateChanged,
			state: "problem",
			want:  "Order #12 for Ann Bananas needs attention",
		},
		{
			name:  "confirmed falls back to display name",
			event: ordersvc.EventOrderStateChanged,
			state: "confirmed",
			want:  "Order #12 for Ann Bananas is now Confirmed",
		},
		{
			name:  "plain updates stay quiet",
			event: ordersvc.EventOrderUpdated,
			state: "new",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := base
			event.Event = tt.event
			event.State = tt.state
			if got := StaffMessage(event); got != tt.want {
				t.Errorf("StaffMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStaffMessageUnnamedCustomer(t *testing.T) {
	event := ordersvc.OrderEvent{
		Event:   ordersvc.EventOrderStateChanged,
		OrderID: 3,
		State:   "ready",
	}
	want := "Order #3 for unnamed customer is ready for pickup"
	if got := StaffMessage(event); got != want {
		t.Errorf("StaffMessage() = %q, want %q", got, want)
	}
}

func TestHandlerNotifiesStaff(t *testing.T) {
	staff := &fakeNotifier{}
	reg := NewOrderEventsHandler(zap.NewNop(), fakeClient{}, staff)

	if reg.Topic != "orders.events" {
		t.Errorf("Topic = %q, want orders.events", reg.Topic)
	}

	payload, err := json.Marshal(ordersvc.OrderEvent{
		Event:        ordersvc.EventOrderStateChanged,
		OrderID:      7,
		State:        "ready",
		CustomerName: "Bob Sponge",
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	if err := reg.Handler(context.Background(), messaging.Message{Topic: "orders.events", Value: payload}); err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if len(staff.messages) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(staff.messages))
	}
	if staff.messages[0] != "Order #7 for Bob Sponge is ready for pickup" {
		t.Errorf("notification = %q", staff.messages[0])
	}
}

func TestHandlerRejectsMalformedPayload(t *testing.T) {
	staff := &fakeNotifier{}
	reg := NewOrderEventsHandler(zap.NewNop(), fakeClient{}, staff)

	err := reg.Handler(context.Background(), messaging.Message{Topic: "orders.events", Value: []byte("{not json")})
	if err == nil {
		t.Fatal("Handler accepted malformed payload")
	}
	if len(staff.messages) != 0 {
		t.Errorf("sent %d notifications, want 0", len(staff.messages))
	}
}

func TestHandlerSwallowsNotifyFailures(t *testing.T) {
	staff := &fakeNotifier{err: errors.New("bot offline")}
	reg := NewOrderEventsHandler(zap.NewNop(), fakeClient{}, staff)

	payload, err := json.Marshal(ordersvc.OrderEvent{
		Event:        ordersvc.EventOrderCreated,
		OrderID:      9,
		CustomerName: "Ann Bananas",
		DueDate:      "2024-03-15",
		DueTime:      "09:30",
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	if err := reg.Handler(context.Background(), messaging.Message{Topic: "orders.events", Value: payload}); err != nil {
		t.Errorf("Handler returned error on notify failure: %v", err)
	}
}

func TestHandlerIgnoresQuietEvents(t *testing.T) {
	staff := &fakeNotifier{}
	reg := NewOrderEventsHandler(zap.NewNop(), fakeClient{}, staff)

	payload, err := json.Marshal(ordersvc.OrderEvent{
		Event:   ordersvc.EventOrderUpdated,
		OrderID: 4,
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	if err := reg.Handler(context.Background(), messaging.Message{Topic: "orders.events", Value: payload}); err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if len(staff.messages) != 0 {
		t.Errorf("sent %d notifications, want 0", len(staff.messages))
	}
}
