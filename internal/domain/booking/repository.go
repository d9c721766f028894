package booking

import (
	"context"
	"time"
)

// BookingRepository defines the persistence contract for booking documents.
type BookingRepository interface {
	// Insert persists a new booking and assigns its identifier.
	Insert(ctx context.Context, booking *Booking) error

	// FindByID retrieves a booking by its identifier.
	FindByID(ctx context.Context, id string) (*Booking, error)

	// List returns bookings matching every non-empty filter field, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)

	// UpdateStatus sets the status and updatedAt of an existing booking.
	UpdateStatus(ctx context.Context, id string, status BookingStatus, updatedAt time.Time) error

	// Delete removes a booking permanently.
	Delete(ctx context.Context, id string) error

	// DistinctDates returns every selectedDate in use, unordered.
	DistinctDates(ctx context.Context) ([]string, error)

	// TimeSlotsForDate returns the selectedTime of each booking on date, duplicates included.
	TimeSlotsForDate(ctx context.Context, date string) ([]string, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Ping checks that the underlying store is reachable.
	Ping(ctx context.Context) error
}
