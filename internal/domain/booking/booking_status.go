package booking

import (
	"fmt"
	"strings"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// AllStatuses lists every recognized status in lifecycle order.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsCancelled returns true for the cancelled status.
func (s BookingStatus) IsCancelled() bool {
	return s == StatusCancelled
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// NormalizeStatus lowercases and trims a raw status value without validating it.
func NormalizeStatus(s string) BookingStatus {
	return BookingStatus(strings.ToLower(strings.TrimSpace(s)))
}

// ParseBookingStatus converts a string to a BookingStatus case-insensitively,
// returning an error if the value is not one of the known statuses.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := NormalizeStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
