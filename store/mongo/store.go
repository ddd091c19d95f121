// Package mongo implements store.Store on MongoDB for deployments that
// already run Mongo and do not want a Redis dependency. Queue entries are
// documents ordered by ObjectID insertion order and claimed with
// findOneAndDelete; status slots use a TTL index for expiry.
//
// MongoDB has no server-side blocking pop, so PopFront polls at a short
// interval until its timeout elapses. The TTL monitor also only sweeps
// about once a minute, so Get additionally checks the deadline on read to
// keep expiry semantics exact.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	export "github.com/teacurran/WireTuner/worker-export"
	"github.com/teacurran/WireTuner/worker-export/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Collection name constants.
const (
	colQueue = "export_queue"
	colSlots = "export_status"
)

// defaultPollInterval is how often PopFront re-checks for new entries.
const defaultPollInterval = 250 * time.Millisecond

type queueDoc struct {
	ID      bson.ObjectID `bson:"_id,omitempty"`
	Key     string        `bson:"key"`
	Payload []byte        `bson:"payload"`
}

type slotDoc struct {
	ID        string     `bson:"_id"`
	Payload   []byte     `bson:"payload"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPollInterval sets how often PopFront re-checks an empty queue.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) { s.pollInterval = d }
}

// Store implements store.Store backed by a MongoDB database. The caller
// owns the client lifecycle; Store never disconnects it.
type Store struct {
	db           *mongod.Database
	logger       *slog.Logger
	pollInterval time.Duration
}

// New creates a MongoDB-backed store over the given database.
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{
		db:           db,
		logger:       slog.Default(),
		pollInterval: defaultPollInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Migrate creates the indexes the store depends on: queue ordering and
// the TTL sweep for status slots.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Collection(colQueue).Indexes().CreateOne(ctx, mongod.IndexModel{
		Keys: bson.D{{Key: "key", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("export/mongo: create queue index: %w", err)
	}

	_, err = s.db.Collection(colSlots).Indexes().CreateOne(ctx, mongod.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("export/mongo: create ttl index: %w", err)
	}
	return nil
}

// PushBack inserts a queue document. ObjectIDs are monotonically
// increasing, which gives FIFO order for the pop sort.
func (s *Store) PushBack(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.Collection(colQueue).InsertOne(ctx, queueDoc{Key: key, Payload: payload})
	if err != nil {
		return fmt.Errorf("export/mongo: push %s: %w", key, err)
	}
	return nil
}

// PopFront claims the oldest entry with findOneAndDelete, polling until
// timeout. Returns (nil, nil) when the window elapses with no entry.
func (s *Store) PopFront(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	opts := options.FindOneAndDelete().SetSort(bson.D{{Key: "_id", Value: 1}})
	for {
		var doc queueDoc
		err := s.db.Collection(colQueue).
			FindOneAndDelete(ctx, bson.D{{Key: "key", Value: key}}, opts).
			Decode(&doc)
		if err == nil {
			return doc.Payload, nil
		}
		if !errors.Is(err, mongod.ErrNoDocuments) {
			return nil, fmt.Errorf("export/mongo: pop %s: %w", key, err)
		}

		select {
		case <-time.After(s.pollInterval):
		case <-deadline.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SetWithExpiry upserts the slot document with its absolute deadline.
func (s *Store) SetWithExpiry(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	doc := slotDoc{ID: key, Payload: payload}
	if ttl > 0 {
		at := time.Now().UTC().Add(ttl)
		doc.ExpiresAt = &at
	}

	_, err := s.db.Collection(colSlots).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: key}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("export/mongo: set %s: %w", key, err)
	}
	return nil
}

// Get returns the slot value, treating documents past their deadline as
// absent even if the TTL monitor has not swept them yet.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc slotDoc
	err := s.db.Collection(colSlots).FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return nil, export.ErrNotFound
		}
		return nil, fmt.Errorf("export/mongo: get %s: %w", key, err)
	}
	if doc.ExpiresAt != nil && time.Now().After(*doc.ExpiresAt) {
		return nil, export.ErrNotFound
	}
	return doc.Payload, nil
}

// Length counts the queue documents for key.
func (s *Store) Length(ctx context.Context, key string) (int64, error) {
	n, err := s.db.Collection(colQueue).CountDocuments(ctx, bson.D{{Key: "key", Value: key}})
	if err != nil {
		return 0, fmt.Errorf("export/mongo: count %s: %w", key, err)
	}
	return n, nil
}

// Ping verifies the MongoDB connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
