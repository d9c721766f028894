package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eventdesk/service-booking/internal/domain"
	bookingDomain "github.com/eventdesk/service-booking/internal/domain/booking"
	"github.com/eventdesk/service-booking/internal/events"
	"go.uber.org/zap"
)

// DefaultUpcomingDays is the look-ahead window used when none (or an unusable one) is given.
const DefaultUpcomingDays = 7

const eventSource = "service-booking"

// EventPublisher delivers booking lifecycle events to the message bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, ce events.CloudEvent) error
}

// ListBookingsQuery holds the optional listing filters taken from the query string.
type ListBookingsQuery struct {
	Email  string
	Date   string
	Status string
}

// BookingDTO is the response representation of a booking. Client extension
// fields are flattened into the same JSON object as the known ones.
type BookingDTO struct {
	ID string `json:"id"`
	bookingDomain.Details
	Status    string         `json:"status"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	Extra     map[string]any `json:"-"`
}

// MarshalJSON writes the known fields over the extension fields.
func (d BookingDTO) MarshalJSON() ([]byte, error) {
	type plain BookingDTO
	known, err := json.Marshal(plain(d))
	if err != nil || len(d.Extra) == 0 {
		return known, err
	}

	var fixed map[string]any
	if err := json.Unmarshal(known, &fixed); err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(d.Extra)+len(fixed))
	for k, v := range d.Extra {
		merged[k] = v
	}
	for k, v := range fixed {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// Option customises a BookingService.
type Option func(*BookingService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

// WithLocation sets the time zone in which "today" is computed for upcoming bookings.
func WithLocation(loc *time.Location) Option {
	return func(s *BookingService) { s.location = loc }
}

// WithTopic overrides the topic booking events are published to.
func WithTopic(topic string) Option {
	return func(s *BookingService) { s.topic = topic }
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	publisher EventPublisher
	logger    *zap.Logger
	topic     string
	now       func() time.Time
	location  *time.Location
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	publisher EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) *BookingService {
	s := &BookingService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		topic:     events.TopicBookingEvents,
		now:       time.Now,
		location:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking validates the submitted fields and stores a new pending booking.
func (s *BookingService) CreateBooking(ctx context.Context, fields map[string]any) (*BookingDTO, error) {
	bk, err := bookingDomain.NewBooking(fields, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID()),
		zap.String("selected_date", bk.SelectedDate()),
	)

	d := bk.Details()
	s.publishEvent(ctx, events.BookingCreated, bk.ID(), events.BookingCreatedEvent{
		BookingID:    bk.ID(),
		Email:        d.Email,
		EventType:    d.EventType,
		SelectedDate: d.SelectedDate,
		SelectedTime: d.SelectedTime,
		Status:       bk.Status().String(),
		OccurredAt:   s.now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns bookings matching every supplied filter, newest first.
// The status filter is compared case-insensitively.
func (s *BookingService) ListBookings(ctx context.Context, q ListBookingsQuery) ([]BookingDTO, error) {
	filter := bookingDomain.ListFilter{
		Email: q.Email,
		Date:  q.Date,
	}
	if q.Status != "" {
		filter.Status = bookingDomain.NormalizeStatus(q.Status)
	}

	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), nil
}

// UpdateStatus validates and applies a status change. An invalid status is
// rejected before the booking is looked up, leaving the document untouched.
func (s *BookingService) UpdateStatus(ctx context.Context, id, rawStatus string) (*BookingDTO, error) {
	status, err := bookingDomain.ParseBookingStatus(rawStatus)
	if err != nil {
		return nil, domain.NewValidationError("Invalid status: " + rawStatus)
	}

	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := bk.Status()
	if err := bk.ChangeStatus(status, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, bk.Status(), bk.UpdatedAt()); err != nil {
		return nil, err
	}

	s.logger.Info("booking status updated",
		zap.String("booking_id", id),
		zap.String("from", previous.String()),
		zap.String("to", status.String()),
	)

	s.publishEvent(ctx, events.BookingStatusChanged, id, events.BookingStatusChangedEvent{
		BookingID:      id,
		PreviousStatus: previous.String(),
		Status:         status.String(),
		OccurredAt:     s.now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking removes a booking after confirming it exists.
func (s *BookingService) DeleteBooking(ctx context.Context, id string) error {
	bk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("booking deleted", zap.String("booking_id", id))

	s.publishEvent(ctx, events.BookingDeleted, id, events.BookingDeletedEvent{
		BookingID:    id,
		SelectedDate: bk.SelectedDate(),
		SelectedTime: bk.SelectedTime(),
		OccurredAt:   s.now().UTC(),
	})
	return nil
}

// BookedDates returns every date on which at least one booking exists.
func (s *BookingService) BookedDates(ctx context.Context) ([]string, error) {
	dates, err := s.repo.DistinctDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked dates: %w", err)
	}
	return dates, nil
}

// TimeSlots returns the booked times on date, duplicates preserved.
func (s *BookingService) TimeSlots(ctx context.Context, date string) ([]string, error) {
	if strings.TrimSpace(date) == "" {
		return nil, domain.NewValidationError("date required")
	}
	slots, err := s.repo.TimeSlotsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	return slots, nil
}

// UpcomingBookings returns non-cancelled bookings whose date lies between
// today's midnight and the same midnight plus days, both ends inclusive,
// ordered by date and time. Negative windows fall back to the default.
func (s *BookingService) UpcomingBookings(ctx context.Context, days int) ([]BookingDTO, error) {
	if days < 0 {
		days = DefaultUpcomingDays
	}

	bookings, err := s.repo.List(ctx, bookingDomain.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	now := s.now().In(s.location)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	to := from.AddDate(0, 0, days)

	upcoming := make([]*bookingDomain.Booking, 0, len(bookings))
	for _, bk := range bookings {
		if bk.FallsWithin(from, to) {
			upcoming = append(upcoming, bk)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].SelectedDate() != upcoming[j].SelectedDate() {
			return upcoming[i].SelectedDate() < upcoming[j].SelectedDate()
		}
		return upcoming[i].SelectedTime() < upcoming[j].SelectedTime()
	})

	return toBookingDTOs(upcoming), nil
}

// --- Admin methods ---

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	byStatus := make(map[string]int64, len(bookingDomain.AllStatuses))
	for _, st := range bookingDomain.AllStatuses {
		byStatus[st.String()] = 0
	}

	var total int64
	for status, c := range counts {
		byStatus[status] += c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// Ping reports whether the booking store is reachable.
func (s *BookingService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:        bk.ID(),
		Details:   bk.Details(),
		Status:    bk.Status().String(),
		CreatedAt: bookingDomain.FormatTimestamp(bk.CreatedAt()),
		UpdatedAt: bookingDomain.FormatTimestamp(bk.UpdatedAt()),
		Extra:     bk.Extra(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	if err := s.publisher.PublishEvent(ctx, s.topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
