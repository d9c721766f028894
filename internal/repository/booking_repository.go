package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventdesk/service-booking/internal/domain"
	bookingDomain "github.com/eventdesk/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            string         `gorm:"primaryKey;size:36"`
	FullName      string         `gorm:"not null"`
	Email         string         `gorm:"not null;index:idx_bookings_email_created,priority:1"`
	ContactNumber string         `gorm:"not null"`
	EventType     string         `gorm:"not null"`
	EventLocation string         `gorm:"not null"`
	SelectedDate  string         `gorm:"not null;size:32;index:idx_bookings_date_created,priority:1"`
	SelectedTime  string         `gorm:"not null;size:32"`
	Status        string         `gorm:"not null;size:30;index:idx_bookings_status_created,priority:1"`
	Extra         map[string]any `gorm:"type:text;serializer:json"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime:false;index:idx_bookings_email_created,priority:2;index:idx_bookings_date_created,priority:2;index:idx_bookings_status_created,priority:2"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository,
// used for the postgres and sqlite stores.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// Migrate creates or updates the bookings table and its indexes.
func (r *GormBookingRepository) Migrate() error {
	if err := r.db.AutoMigrate(&BookingModel{}); err != nil {
		return fmt.Errorf("failed to migrate bookings table: %w", err)
	}
	return nil
}

// Insert persists a new booking under a fresh UUID.
func (r *GormBookingRepository) Insert(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	model.ID = uuid.New().String()

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	bk.AssignID(model.ID)
	return nil
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model), nil
}

// List retrieves bookings matching the filter, newest first.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	if filter.Date != "" {
		query = query.Where("selected_date = ?", filter.Date)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status.String())
	}

	var models []BookingModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toDomainBooking(&models[i])
	}
	return bookings, nil
}

// UpdateStatus sets the status and updatedAt of an existing booking.
func (r *GormBookingRepository) UpdateStatus(ctx context.Context, id string, status bookingDomain.BookingStatus, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": updatedAt.UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id)
	}
	return nil
}

// Delete removes a booking permanently.
func (r *GormBookingRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id)
	}
	return nil
}

// DistinctDates returns every non-empty selected date in use.
func (r *GormBookingRepository) DistinctDates(ctx context.Context) ([]string, error) {
	var dates []string
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("selected_date <> ''").
		Distinct().
		Pluck("selected_date", &dates).Error; err != nil {
		return nil, fmt.Errorf("failed to list booked dates: %w", err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// TimeSlotsForDate returns the selected time of every booking on date.
func (r *GormBookingRepository) TimeSlotsForDate(ctx context.Context, date string) ([]string, error) {
	var slots []string
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("selected_date = ? AND selected_time <> ''", date).
		Pluck("selected_time", &slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Ping checks the database connection.
func (r *GormBookingRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	d := bk.Details()
	return &BookingModel{
		ID:            bk.ID(),
		FullName:      d.FullName,
		Email:         d.Email,
		ContactNumber: d.ContactNumber,
		EventType:     d.EventType,
		EventLocation: d.EventLocation,
		SelectedDate:  d.SelectedDate,
		SelectedTime:  d.SelectedTime,
		Status:        bk.Status().String(),
		Extra:         bk.Extra(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		m.ID,
		bookingDomain.Details{
			FullName:      m.FullName,
			Email:         m.Email,
			ContactNumber: m.ContactNumber,
			EventType:     m.EventType,
			EventLocation: m.EventLocation,
			SelectedDate:  m.SelectedDate,
			SelectedTime:  m.SelectedTime,
		},
		bookingDomain.NormalizeStatus(m.Status),
		m.Extra,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
