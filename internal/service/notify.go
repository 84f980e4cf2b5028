package service

import (
	"encoding/json"
	"fmt"

	"github.com/eazyparking/parking-bookings/internal/platform/mailer"
	"github.com/eazyparking/parking-bookings/pkg/events"
	"github.com/eazyparking/parking-bookings/pkg/logger"
)

// Notifier sends booking confirmation emails off the event bus so the
// request path never waits on the mail provider.
type Notifier struct {
	mail mailer.Service
}

func NewNotifier(mail mailer.Service) *Notifier {
	return &Notifier{mail: mail}
}

func (n *Notifier) Start(bus events.Subscriber) error {
	return bus.QueueSubscribe(events.BookingCreated, "notify", n.onBookingCreated)
}

func (n *Notifier) onBookingCreated(msg *events.Message) {
	var ev events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("failed to decode booking created event", "error", err)
		return
	}

	subject := "Your parking booking is confirmed"
	text := fmt.Sprintf("Hi %s, your booking %s at %s for vehicle %s is confirmed. Arrival: %s.",
		ev.UserName, ev.BookRef, ev.Location, ev.Registration, ev.InTime.Format("02 Jan 2006 15:04"))
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your booking <b>%s</b> at <b>%s</b> for vehicle <b>%s</b> is confirmed.</p><p>Arrival: %s</p>",
		ev.UserName, ev.BookRef, ev.Location, ev.Registration, ev.InTime.Format("02 Jan 2006 15:04"))

	if _, err := n.mail.Send(ev.UserEmail, ev.UserName, subject, text, html); err != nil {
		logger.Error("failed to send booking confirmation email",
			"error", err, "booking_id", ev.BookingID, "to", ev.UserEmail)
	}
}
