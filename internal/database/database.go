package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Driver identifies the store behind a credentials URI.
type Driver string

const (
	DriverMongo    Driver = "mongo"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// DefaultMongoDatabase is used when the credentials name no database.
const DefaultMongoDatabase = "bookings"

const connectTimeout = 10 * time.Second

// DriverFor picks the driver from the URI scheme.
func DriverFor(uri string) (Driver, error) {
	scheme, _, found := strings.Cut(uri, "://")
	if !found {
		return "", fmt.Errorf("credentials uri has no scheme: %q", uri)
	}
	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlite":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported store scheme %q", scheme)
	}
}

// ConnectMongo opens a client and verifies the primary is reachable.
func ConnectMongo(ctx context.Context, uri string, log *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("connected to MongoDB")
	return client, nil
}

// ConnectPostgres opens a GORM connection to PostgreSQL with pool limits.
func ConnectPostgres(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := openGorm(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("connected to PostgreSQL")
	return db, nil
}

// ConnectSQLite opens a GORM connection to an SQLite file or in-memory database.
func ConnectSQLite(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := openGorm(sqlite.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// a single connection keeps in-memory databases alive and serializes writers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Info("opened SQLite database", zap.String("dsn", dsn))
	return db, nil
}

func openGorm(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
