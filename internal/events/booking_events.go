package events

import "time"

// TopicBookingEvents is the default topic for booking lifecycle events.
const TopicBookingEvents = "booking.events"

// Booking event types.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	BookingDeleted       = "booking.deleted"
)

// BookingCreatedEvent is published after a booking is stored.
type BookingCreatedEvent struct {
	BookingID    string    `json:"booking_id"`
	Email        string    `json:"email"`
	EventType    string    `json:"event_type"`
	SelectedDate string    `json:"selected_date"`
	SelectedTime string    `json:"selected_time"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published after an admin or client changes a booking's status.
type BookingStatusChangedEvent struct {
	BookingID      string    `json:"booking_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// BookingDeletedEvent is published after a booking is removed.
type BookingDeletedEvent struct {
	BookingID    string    `json:"booking_id"`
	SelectedDate string    `json:"selected_date"`
	SelectedTime string    `json:"selected_time"`
	OccurredAt   time.Time `json:"occurred_at"`
}
