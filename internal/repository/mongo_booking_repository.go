package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventdesk/service-booking/internal/domain"
	bookingDomain "github.com/eventdesk/service-booking/internal/domain/booking"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// BookingsCollection is the name of the collection holding booking documents.
const BookingsCollection = "bookings"

// MongoBookingRepository stores bookings as schemaless documents in MongoDB.
// Fields are kept at the top level of each document so client extension
// fields sit next to the known ones.
type MongoBookingRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoBookingRepository creates a repository over the bookings collection of db.
func NewMongoBookingRepository(client *mongo.Client, db *mongo.Database) *MongoBookingRepository {
	return &MongoBookingRepository{
		client:     client,
		collection: db.Collection(BookingsCollection),
	}
}

// EnsureIndexes creates the compound indexes backing the filtered, newest-first listings.
func (r *MongoBookingRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: bookingDomain.FieldStatus, Value: 1}, {Key: bookingDomain.FieldCreatedAt, Value: -1}}},
		{Keys: bson.D{{Key: bookingDomain.FieldSelectedDate, Value: 1}, {Key: bookingDomain.FieldCreatedAt, Value: -1}}},
		{Keys: bson.D{{Key: bookingDomain.FieldEmail, Value: 1}, {Key: bookingDomain.FieldCreatedAt, Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

// Insert persists a new booking and assigns the generated ObjectID.
func (r *MongoBookingRepository) Insert(ctx context.Context, bk *bookingDomain.Booking) error {
	oid := primitive.NewObjectID()

	doc := bson.M{}
	for k, v := range bk.Document() {
		if k == bookingDomain.FieldID {
			continue
		}
		doc[k] = v
	}
	doc["_id"] = oid

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	bk.AssignID(oid.Hex())
	return nil
}

// FindByID retrieves a booking by its hex ObjectID. Malformed ids are reported as not found.
func (r *MongoBookingRepository) FindByID(ctx context.Context, id string) (*bookingDomain.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NewNotFoundError("Booking", id)
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("Booking", id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return fromDocument(raw)
}

// List retrieves bookings matching the filter, newest first.
func (r *MongoBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, error) {
	query := bson.M{}
	if filter.Email != "" {
		query[bookingDomain.FieldEmail] = filter.Email
	}
	if filter.Date != "" {
		query[bookingDomain.FieldSelectedDate] = filter.Date
	}
	if filter.Status != "" {
		query[bookingDomain.FieldStatus] = filter.Status.String()
	}

	opts := options.Find().SetSort(bson.D{{Key: bookingDomain.FieldCreatedAt, Value: -1}})
	cur, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	bookings := make([]*bookingDomain.Booking, 0)
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bk, err := fromDocument(raw)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, bk)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus sets the status and updatedAt of an existing booking.
func (r *MongoBookingRepository) UpdateStatus(ctx context.Context, id string, status bookingDomain.BookingStatus, updatedAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.NewNotFoundError("Booking", id)
	}

	update := bson.M{"$set": bson.M{
		bookingDomain.FieldStatus:    status.String(),
		bookingDomain.FieldUpdatedAt: bookingDomain.FormatTimestamp(updatedAt),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.NewNotFoundError("Booking", id)
	}
	return nil
}

// Delete removes a booking permanently.
func (r *MongoBookingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.NewNotFoundError("Booking", id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.NewNotFoundError("Booking", id)
	}
	return nil
}

// DistinctDates returns every non-empty selected date in use.
func (r *MongoBookingRepository) DistinctDates(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, bookingDomain.FieldSelectedDate,
		bson.M{bookingDomain.FieldSelectedDate: bson.M{"$exists": true, "$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("failed to list booked dates: %w", err)
	}

	dates := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			dates = append(dates, s)
		}
	}
	return dates, nil
}

// TimeSlotsForDate returns the selected time of every booking on date.
func (r *MongoBookingRepository) TimeSlotsForDate(ctx context.Context, date string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{bookingDomain.FieldSelectedTime: 1})
	cur, err := r.collection.Find(ctx, bson.M{bookingDomain.FieldSelectedDate: date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	defer cur.Close(ctx)

	slots := make([]string, 0)
	for cur.Next(ctx) {
		var row struct {
			SelectedTime string `bson:"selectedTime"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode time slot: %w", err)
		}
		if row.SelectedTime != "" {
			slots = append(slots, row.SelectedTime)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time slots: %w", err)
	}
	return slots, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *MongoBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + bookingDomain.FieldStatus},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode status count: %w", err)
		}
		counts[row.Status] = row.Count
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}
	return counts, nil
}

// Ping checks that the primary is reachable.
func (r *MongoBookingRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// --- Conversion Helpers ---

func fromDocument(raw bson.M) (*bookingDomain.Booking, error) {
	var id string
	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		id = oid.Hex()
	}

	createdAt, err := timestampField(raw, bookingDomain.FieldCreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := timestampField(raw, bookingDomain.FieldUpdatedAt)
	if err != nil {
		return nil, err
	}

	extra := make(map[string]any)
	for k, v := range raw {
		if bookingDomain.IsKnownField(k) {
			continue
		}
		extra[k] = normalizeValue(v)
	}

	return bookingDomain.ReconstructBooking(
		id,
		bookingDomain.Details{
			FullName:      stringField(raw, bookingDomain.FieldFullName),
			Email:         stringField(raw, bookingDomain.FieldEmail),
			ContactNumber: stringField(raw, bookingDomain.FieldContactNumber),
			EventType:     stringField(raw, bookingDomain.FieldEventType),
			EventLocation: stringField(raw, bookingDomain.FieldEventLocation),
			SelectedDate:  stringField(raw, bookingDomain.FieldSelectedDate),
			SelectedTime:  stringField(raw, bookingDomain.FieldSelectedTime),
		},
		bookingDomain.NormalizeStatus(stringField(raw, bookingDomain.FieldStatus)),
		extra,
		createdAt,
		updatedAt,
	), nil
}

func stringField(raw bson.M, key string) string {
	s, _ := raw[key].(string)
	return s
}

func timestampField(raw bson.M, key string) (time.Time, error) {
	switch v := raw[key].(type) {
	case string:
		return bookingDomain.ParseTimestamp(v)
	case primitive.DateTime:
		return v.Time().UTC(), nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected %s type %T", key, v)
	}
}

// normalizeValue turns driver container types into plain maps and slices so
// extension fields serialize to JSON the way clients sent them.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalizeValue(val)
		}
		return m
	case primitive.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return bookingDomain.FormatTimestamp(t.Time())
	default:
		return v
	}
}
