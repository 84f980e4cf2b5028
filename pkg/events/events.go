package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/eazyparking/parking-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Subjects
const (
	BookingCreated = "booking.created"
	BookingSettled = "booking.settled"

	VehicleCheckedIn  = "vehicle.checked_in"
	VehicleCheckedOut = "vehicle.checked_out"

	PaymentCaptured = "payment.captured"
	// PaymentCapacityConflict fires when a payment completed but the lot
	// filled up between checkout and confirmation. Needs a manual refund.
	PaymentCapacityConflict = "payment.capacity_conflict"
)

type BookingCreatedEvent struct {
	BookingID    int64     `json:"booking_id"`
	BookRef      string    `json:"book_ref"`
	UserID       int64     `json:"user_id"`
	UserEmail    string    `json:"user_email"`
	UserName     string    `json:"user_name"`
	ParkingLotID int64     `json:"parking_lot_id"`
	Location     string    `json:"location"`
	Registration string    `json:"registration_number"`
	InTime       time.Time `json:"in_time"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingSettledEvent struct {
	VehicleID int64     `json:"vehicle_id"`
	Remark    string    `json:"remark"`
	SettledAt time.Time `json:"settled_at"`
}

type VehicleTransitionEvent struct {
	VehicleID int64     `json:"vehicle_id"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

type PaymentCapturedEvent struct {
	BookingID int64  `json:"booking_id"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type PaymentCapacityConflictEvent struct {
	UserID       int64     `json:"user_id"`
	ParkingLotID int64     `json:"parking_lot_id"`
	Registration string    `json:"registration_number"`
	InTime       time.Time `json:"in_time"`
	TokenID      string    `json:"token_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}
