//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/eventdesk/service-booking/internal/application"
	"github.com/eventdesk/service-booking/internal/config"
	"github.com/eventdesk/service-booking/internal/database"
	bookingEvents "github.com/eventdesk/service-booking/internal/events"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	MongoURI     string
	PostgresURI  string
	KafkaBrokers []string
	Cleanup      func()
}

// bookingStack holds wired-up booking service components.
type bookingStack struct {
	Service *application.BookingService
	Store   *database.Handle
	Cleanup func()
}

// setupContainers starts MongoDB, PostgreSQL and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForLog("Waiting for connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start MongoDB container")

	mongoHost, err := mongoContainer.Host(ctx)
	require.NoError(t, err)
	mongoPort, err := mongoContainer.MappedPort(ctx, "27017")
	require.NoError(t, err)

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_booking",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, bookingEvents.TopicBookingEvents)

	cleanup := func() {
		for name, c := range map[string]testcontainers.Container{
			"Kafka":      kafkaContainer,
			"PostgreSQL": pgContainer,
			"MongoDB":    mongoContainer,
		} {
			if err := c.Terminate(ctx); err != nil {
				t.Logf("failed to terminate %s container: %v", name, err)
			}
		}
	}

	return &testInfra{
		MongoURI:     fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort.Port()),
		PostgresURI:  fmt.Sprintf("postgres://test:test@%s:%s/test_booking?sslmode=disable", pgHost, pgPort.Port()),
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBookingStack wires the booking service to the store at uri and a Kafka producer.
func setupBookingStack(t *testing.T, uri string, brokers []string) *bookingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	store := database.NewHandle(config.Credentials{
		URI:      uri,
		Database: "bookings_" + uuid.New().String()[:8],
	}, logger)

	// The store may still be warming up right after the container reports ready.
	require.Eventually(t, func() bool {
		return store.Init(context.Background()) == nil
	}, 30*time.Second, time.Second, "booking store not ready")

	producer := bookingEvents.NewProducer(brokers, logger)
	svc := application.NewBookingService(store.Bookings(), producer, logger,
		application.WithLocation(time.UTC))

	return &bookingStack{
		Service: svc,
		Store:   store,
		Cleanup: func() {
			_ = producer.Close()
			_ = store.Close(context.Background())
		},
	}
}

// consumeEventFor reads from a Kafka topic until it finds an event of the
// expected type about the given booking.
func consumeEventFor(t *testing.T, brokers []string, topic, expectedType, bookingID string, timeout time.Duration) bookingEvents.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := bookingEvents.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && string(msg.Key) == bookingID {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}

func bookingFields(email, date, tm string) map[string]any {
	return map[string]any{
		"fullName":      "Integration Tester",
		"email":         email,
		"contactNumber": "555-0123",
		"eventType":     "corporate",
		"eventLocation": "Main Hall",
		"selectedDate":  date,
		"selectedTime":  tm,
		"guestCount":    80.0,
	}
}
