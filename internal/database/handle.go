package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/eventdesk/service-booking/internal/config"
	bookingDomain "github.com/eventdesk/service-booking/internal/domain/booking"
	"github.com/eventdesk/service-booking/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotInitialized is returned by Ping before Init has succeeded.
var ErrNotInitialized = errors.New("database handle not initialized")

// Handle owns the process-wide connection to the booking store. It is built
// once at startup and injected into the services that need it.
type Handle struct {
	creds config.Credentials
	log   *zap.Logger

	mu      sync.Mutex
	driver  Driver
	repo    bookingDomain.BookingRepository
	closeFn func(context.Context) error
}

// NewHandle creates an uninitialized handle for creds.
func NewHandle(creds config.Credentials, log *zap.Logger) *Handle {
	return &Handle{creds: creds, log: log}
}

// Init connects to the store and prepares the bookings collection or table.
// Calling Init on an initialized handle is a no-op.
func (h *Handle) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.repo != nil {
		return nil
	}

	driver, err := DriverFor(h.creds.URI)
	if err != nil {
		return err
	}

	switch driver {
	case DriverMongo:
		client, err := ConnectMongo(ctx, h.creds.URI, h.log)
		if err != nil {
			return err
		}
		dbName := h.creds.Database
		if dbName == "" {
			dbName = DefaultMongoDatabase
		}
		repo := repository.NewMongoBookingRepository(client, client.Database(dbName))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return err
		}
		h.repo = repo
		h.closeFn = client.Disconnect

	case DriverPostgres, DriverSQLite:
		gdb, err := h.openGorm(driver)
		if err != nil {
			return err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql handle: %w", err)
		}
		repo := repository.NewGormBookingRepository(gdb)
		if err := repo.Migrate(); err != nil {
			_ = sqlDB.Close()
			return err
		}
		h.repo = repo
		h.closeFn = func(context.Context) error { return sqlDB.Close() }
	}

	h.driver = driver
	h.log.Info("booking store initialized", zap.String("driver", string(driver)))
	return nil
}

func (h *Handle) openGorm(driver Driver) (*gorm.DB, error) {
	if driver == DriverSQLite {
		return ConnectSQLite(strings.TrimPrefix(h.creds.URI, "sqlite://"), h.log)
	}
	return ConnectPostgres(h.creds.URI, h.log)
}

// Driver returns the store driver, empty before Init.
func (h *Handle) Driver() Driver {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver
}

// Bookings returns the booking repository, nil before Init.
func (h *Handle) Bookings() bookingDomain.BookingRepository {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.repo
}

// Ping checks the store connection.
func (h *Handle) Ping(ctx context.Context) error {
	repo := h.Bookings()
	if repo == nil {
		return ErrNotInitialized
	}
	return repo.Ping(ctx)
}

// Close releases the connection. The handle can be initialized again afterwards.
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closeFn == nil {
		return nil
	}
	err := h.closeFn(ctx)
	h.repo = nil
	h.closeFn = nil
	h.driver = ""
	return err
}
