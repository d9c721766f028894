package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/eventdesk/service-booking/internal/domain"
)

const (
	// DateLayout is the calendar-date format of selectedDate.
	DateLayout = "2006-01-02"
	// TimestampLayout renders createdAt/updatedAt as ISO-8601 UTC with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Field names of the booking document.
const (
	FieldID            = "id"
	FieldFullName      = "fullName"
	FieldEmail         = "email"
	FieldContactNumber = "contactNumber"
	FieldEventType     = "eventType"
	FieldEventLocation = "eventLocation"
	FieldSelectedDate  = "selectedDate"
	FieldSelectedTime  = "selectedTime"
	FieldStatus        = "status"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

// RequiredFields is the canonical set of fields a new booking must carry,
// in the order they are checked.
var RequiredFields = []string{
	FieldFullName,
	FieldEmail,
	FieldContactNumber,
	FieldEventType,
	FieldEventLocation,
	FieldSelectedDate,
	FieldSelectedTime,
}

// reservedFields are server-owned and never copied from client input.
var reservedFields = map[string]struct{}{
	FieldID:        {},
	"_id":          {},
	FieldStatus:    {},
	FieldCreatedAt: {},
	FieldUpdatedAt: {},
}

// Details holds the contact and scheduling fields supplied by the client.
type Details struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
	EventType     string `json:"eventType"`
	EventLocation string `json:"eventLocation"`
	SelectedDate  string `json:"selectedDate"`
	SelectedTime  string `json:"selectedTime"`
}

// ListFilter narrows a booking listing. Empty fields impose no constraint.
type ListFilter struct {
	Email  string
	Date   string
	Status BookingStatus
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id        string
	details   Details
	status    BookingStatus
	extra     map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a pending Booking from raw client fields. Every required
// field must be a non-empty string; the first one missing is named in the
// returned validation error. Fields outside the known set are kept verbatim,
// except server-owned ones which are dropped.
func NewBooking(fields map[string]any, now time.Time) (*Booking, error) {
	values := make(map[string]string, len(RequiredFields))
	for _, name := range RequiredFields {
		raw, ok := fields[name]
		if !ok || raw == nil {
			return nil, domain.NewValidationError("Missing " + name)
		}
		s, isString := raw.(string)
		if !isString {
			return nil, domain.NewValidationError(fmt.Sprintf("Invalid %s: must be a string", name))
		}
		if strings.TrimSpace(s) == "" {
			return nil, domain.NewValidationError("Missing " + name)
		}
		values[name] = s
	}

	extra := make(map[string]any)
	for k, v := range fields {
		if _, reserved := reservedFields[k]; reserved {
			continue
		}
		if isRequiredField(k) {
			continue
		}
		extra[k] = v
	}

	ts := normalizeTime(now)
	return &Booking{
		details: Details{
			FullName:      values[FieldFullName],
			Email:         values[FieldEmail],
			ContactNumber: values[FieldContactNumber],
			EventType:     values[FieldEventType],
			EventLocation: values[FieldEventLocation],
			SelectedDate:  values[FieldSelectedDate],
			SelectedTime:  values[FieldSelectedTime],
		},
		status:    StatusPending,
		extra:     extra,
		createdAt: ts,
		updatedAt: ts,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id string,
	details Details,
	status BookingStatus,
	extra map[string]any,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	if extra == nil {
		extra = make(map[string]any)
	}
	return &Booking{
		id:        id,
		details:   details,
		status:    status,
		extra:     extra,
		createdAt: createdAt.UTC(),
		updatedAt: updatedAt.UTC(),
	}
}

// --- Getters ---

// ID returns the store-assigned identifier, empty until inserted.
func (b *Booking) ID() string { return b.id }

// Details returns the contact and scheduling fields.
func (b *Booking) Details() Details { return b.details }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-modified timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// SelectedDate returns the event date exactly as stored.
func (b *Booking) SelectedDate() string { return b.details.SelectedDate }

// SelectedTime returns the event time exactly as stored.
func (b *Booking) SelectedTime() string { return b.details.SelectedTime }

// Extra returns a copy of the client fields outside the known schema.
func (b *Booking) Extra() map[string]any {
	out := make(map[string]any, len(b.extra))
	for k, v := range b.extra {
		out[k] = v
	}
	return out
}

// --- Behaviour ---

// AssignID records the identifier handed out by the store on insert.
func (b *Booking) AssignID(id string) {
	b.id = id
}

// ChangeStatus sets a new status and refreshes updatedAt.
func (b *Booking) ChangeStatus(status BookingStatus, now time.Time) error {
	if !status.IsValid() {
		return domain.NewValidationError("Invalid status: " + string(status))
	}
	b.status = status
	b.touch(now)
	return nil
}

// touch moves updatedAt forward, never leaving it equal to or before its previous value.
func (b *Booking) touch(now time.Time) {
	ts := normalizeTime(now)
	if !ts.After(b.updatedAt) {
		ts = b.updatedAt.Add(time.Millisecond)
	}
	b.updatedAt = ts
}

// EventDay parses selectedDate as local midnight in loc.
func (b *Booking) EventDay(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, b.details.SelectedDate, loc)
}

// FallsWithin reports whether a non-cancelled booking's event day lies in [from, to].
func (b *Booking) FallsWithin(from, to time.Time) bool {
	if b.status.IsCancelled() {
		return false
	}
	day, err := b.EventDay(from.Location())
	if err != nil {
		return false
	}
	return !day.Before(from) && !day.After(to)
}

// Document flattens the booking into its stored/wire representation:
// extension fields first, known fields on top.
func (b *Booking) Document() map[string]any {
	doc := make(map[string]any, len(b.extra)+11)
	for k, v := range b.extra {
		doc[k] = v
	}
	if b.id != "" {
		doc[FieldID] = b.id
	}
	doc[FieldFullName] = b.details.FullName
	doc[FieldEmail] = b.details.Email
	doc[FieldContactNumber] = b.details.ContactNumber
	doc[FieldEventType] = b.details.EventType
	doc[FieldEventLocation] = b.details.EventLocation
	doc[FieldSelectedDate] = b.details.SelectedDate
	doc[FieldSelectedTime] = b.details.SelectedTime
	doc[FieldStatus] = b.status.String()
	doc[FieldCreatedAt] = FormatTimestamp(b.createdAt)
	doc[FieldUpdatedAt] = FormatTimestamp(b.updatedAt)
	return doc
}

// IsKnownField reports whether name belongs to the fixed schema or is server-owned.
func IsKnownField(name string) bool {
	if _, reserved := reservedFields[name]; reserved {
		return true
	}
	return isRequiredField(name)
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an ISO-8601 timestamp as written by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func isRequiredField(name string) bool {
	for _, f := range RequiredFields {
		if f == name {
			return true
		}
	}
	return false
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
