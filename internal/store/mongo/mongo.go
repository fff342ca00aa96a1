// Package mongo implements store.Store on MongoDB with users, calendars and
// events collections keyed by string IDs.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"calendar-service/internal/model"
	"calendar-service/internal/store"
)

const (
	usersCollection     = "users"
	calendarsCollection = "calendars"
	eventsCollection    = "events"
)

// Connect opens a client for uri and verifies connectivity.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the lookups rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := db.Collection(calendarsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	}); err != nil {
		return fmt.Errorf("calendars index: %w", err)
	}
	if _, err := db.Collection(eventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "calendar", Value: 1}, {Key: "start", Value: 1}, {Key: "end", Value: 1}},
	}); err != nil {
		return fmt.Errorf("events index: %w", err)
	}
	if _, err := db.Collection(eventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "calendar", Value: 1}, {Key: "externalId", Value: 1}},
		Options: options.Index().SetSparse(true),
	}); err != nil {
		return fmt.Errorf("events external id index: %w", err)
	}
	return nil
}

// New returns a store over db. Close disconnects the owning client.
func New(db *mongo.Database) store.Store {
	return &mongoStore{db: db}
}

type mongoStore struct{ db *mongo.Database }

func (s *mongoStore) Users() store.Users {
	return &users{coll: s.db.Collection(usersCollection)}
}

func (s *mongoStore) Calendars() store.Calendars {
	return &calendars{coll: s.db.Collection(calendarsCollection), users: s.db.Collection(usersCollection)}
}

func (s *mongoStore) Events() store.Events {
	return &events{coll: s.db.Collection(eventsCollection), calendars: s.db.Collection(calendarsCollection)}
}

func (s *mongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func exists(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Users ---
type users struct{ coll *mongo.Collection }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	out.Email = store.NormalizeEmail(out.Email)
	if out.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrInvalidArgument)
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	_, err := u.coll.InsertOne(ctx, out)
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: email %s already registered", model.ErrConflict, out.Email)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) FindByEmails(ctx context.Context, emails []string) ([]model.User, error) {
	norm := store.NormalizeEmails(emails)
	if len(norm) == 0 {
		return nil, nil
	}
	cursor, err := u.coll.Find(ctx, bson.M{"email": bson.M{"$in": norm}},
		options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []model.User
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *users) Search(ctx context.Context, query, excludeID string, limit int) ([]model.User, error) {
	pattern := regexp.QuoteMeta(query)
	filter := bson.M{
		"_id": bson.M{"$ne": excludeID},
		"$or": []bson.M{
			{"email": bson.M{"$regex": pattern, "$options": "i"}},
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "email", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := u.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []model.User
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Calendars ---
type calendars struct {
	coll  *mongo.Collection
	users *mongo.Collection
}

func (c *calendars) Create(ctx context.Context, m *model.Calendar) (*model.Calendar, error) {
	if m.OwnerID == "" {
		return nil, fmt.Errorf("%w: calendar owner is required", model.ErrInvalidArgument)
	}
	ok, err := exists(ctx, c.users, m.OwnerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: owner %s", model.ErrNotFound, m.OwnerID)
	}

	out := *m
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Color == "" {
		out.Color = "#3b82f6"
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if _, err := c.coll.InsertOne(ctx, out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *calendars) Get(ctx context.Context, id string) (*model.Calendar, error) {
	var out model.Calendar
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: calendar %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *calendars) FindByOwners(ctx context.Context, ownerIDs []string) ([]model.Calendar, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	cursor, err := c.coll.Find(ctx, bson.M{"user": bson.M{"$in": ownerIDs}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Calendar
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Events ---
type events struct {
	coll      *mongo.Collection
	calendars *mongo.Collection
}

func (e *events) Create(ctx context.Context, m *model.Event) (*model.Event, error) {
	if m.CalendarID == "" {
		return nil, fmt.Errorf("%w: event calendar is required", model.ErrInvalidArgument)
	}
	if m.End.Before(m.Start) {
		return nil, fmt.Errorf("%w: event ends before it starts", model.ErrInvalidArgument)
	}
	ok, err := exists(ctx, e.calendars, m.CalendarID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: calendar %s", model.ErrNotFound, m.CalendarID)
	}

	out := *m
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if _, err := e.coll.InsertOne(ctx, out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *events) FindOverlapping(ctx context.Context, calendarIDs []string, start, end time.Time) ([]model.Event, error) {
	if len(calendarIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"calendar": bson.M{"$in": calendarIDs},
		"start":    bson.M{"$lte": end},
		"end":      bson.M{"$gte": start},
	}
	cursor, err := e.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Event
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *events) FindByExternalIDs(ctx context.Context, calendarID string, externalIDs []string) ([]model.Event, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"calendar":   calendarID,
		"externalId": bson.M{"$in": externalIDs},
	}
	cursor, err := e.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Event
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *events) Update(ctx context.Context, m *model.Event) (*model.Event, error) {
	if m.End.Before(m.Start) {
		return nil, fmt.Errorf("%w: event ends before it starts", model.ErrInvalidArgument)
	}
	set := bson.M{
		"title":       m.Title,
		"description": m.Description,
		"location":    m.Location,
		"start":       m.Start,
		"end":         m.End,
		"allDay":      m.AllDay,
		"recurrence":  m.Recurrence,
		"externalId":  m.ExternalID,
	}
	var out model.Event
	err := e.coll.FindOneAndUpdate(ctx, bson.M{"_id": m.ID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: event %s", model.ErrNotFound, m.ID)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
