package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eventdesk/service-booking/internal/domain"
	bookingDomain "github.com/eventdesk/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) *GormBookingRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:bookings_repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewGormBookingRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func newBooking(t *testing.T, email, date, tm string, created time.Time, extra map[string]any) *bookingDomain.Booking {
	t.Helper()
	fields := map[string]any{
		"fullName":      "Test User",
		"email":         email,
		"contactNumber": "555-0101",
		"eventType":     "birthday",
		"eventLocation": "Hall A",
		"selectedDate":  date,
		"selectedTime":  tm,
	}
	for k, v := range extra {
		fields[k] = v
	}
	bk, err := bookingDomain.NewBooking(fields, created)
	require.NoError(t, err)
	return bk
}

func TestGormRepo_InsertAndFindByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	bk := newBooking(t, "a@example.com", "2025-02-01", "10:00", created, map[string]any{
		"guestCount": 25.0,
		"menu":       map[string]any{"main": "fish"},
	})
	require.NoError(t, repo.Insert(ctx, bk))
	require.NotEmpty(t, bk.ID())

	got, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bk.ID(), got.ID())
	assert.Equal(t, bk.Details(), got.Details())
	assert.Equal(t, bookingDomain.StatusPending, got.Status())
	assert.True(t, created.Equal(got.CreatedAt()))
	assert.Equal(t, 25.0, got.Extra()["guestCount"])
	assert.Equal(t, map[string]any{"main": "fish"}, got.Extra()["menu"])
}

func TestGormRepo_FindByID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindByID(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestGormRepo_List_FiltersNewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	first := newBooking(t, "a@example.com", "2025-02-01", "10:00", base, nil)
	second := newBooking(t, "b@example.com", "2025-02-01", "12:00", base.Add(time.Minute), nil)
	third := newBooking(t, "a@example.com", "2025-02-02", "10:00", base.Add(2*time.Minute), nil)
	for _, bk := range []*bookingDomain.Booking{first, second, third} {
		require.NoError(t, repo.Insert(ctx, bk))
	}
	require.NoError(t, repo.UpdateStatus(ctx, second.ID(), bookingDomain.StatusConfirmed, base.Add(time.Hour)))

	all, err := repo.List(ctx, bookingDomain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID(), second.ID(), first.ID()},
		[]string{all[0].ID(), all[1].ID(), all[2].ID()})

	byEmail, err := repo.List(ctx, bookingDomain.ListFilter{Email: "a@example.com"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	byDateAndStatus, err := repo.List(ctx, bookingDomain.ListFilter{
		Date:   "2025-02-01",
		Status: bookingDomain.StatusConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, byDateAndStatus, 1)
	assert.Equal(t, second.ID(), byDateAndStatus[0].ID())

	none, err := repo.List(ctx, bookingDomain.ListFilter{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormRepo_UpdateStatusAndDelete_NotFound(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	err := repo.UpdateStatus(ctx, "missing", bookingDomain.StatusCancelled, time.Now())
	assert.True(t, domain.IsNotFound(err))

	err = repo.Delete(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestGormRepo_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	bk := newBooking(t, "a@example.com", "2025-02-01", "10:00", time.Now(), nil)
	require.NoError(t, repo.Insert(ctx, bk))
	require.NoError(t, repo.Delete(ctx, bk.ID()))

	_, err := repo.FindByID(ctx, bk.ID())
	assert.True(t, domain.IsNotFound(err))
}

func TestGormRepo_DatesAndTimeSlots(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	dates, err := repo.DistinctDates(ctx)
	require.NoError(t, err)
	assert.NotNil(t, dates)
	assert.Empty(t, dates)

	require.NoError(t, repo.Insert(ctx, newBooking(t, "a@example.com", "2025-02-01", "10:00", base, nil)))
	require.NoError(t, repo.Insert(ctx, newBooking(t, "b@example.com", "2025-02-01", "10:00", base.Add(time.Second), nil)))
	require.NoError(t, repo.Insert(ctx, newBooking(t, "c@example.com", "2025-02-03", "16:30", base.Add(2*time.Second), nil)))

	dates, err = repo.DistinctDates(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2025-02-01", "2025-02-03"}, dates)

	slots, err := repo.TimeSlotsForDate(ctx, "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:00"}, slots)

	slots, err = repo.TimeSlotsForDate(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestGormRepo_CountByStatusAndPing(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	a := newBooking(t, "a@example.com", "2025-02-01", "10:00", base, nil)
	b := newBooking(t, "b@example.com", "2025-02-02", "10:00", base, nil)
	require.NoError(t, repo.Insert(ctx, a))
	require.NoError(t, repo.Insert(ctx, b))
	require.NoError(t, repo.UpdateStatus(ctx, b.ID(), bookingDomain.StatusCancelled, base.Add(time.Minute)))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"pending": 1, "cancelled": 1}, counts)

	assert.NoError(t, repo.Ping(ctx))
}
