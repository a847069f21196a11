package article

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate signals that a record with the same (source, originalId)
// already exists. Callers count this as Skipped, not as a failure.
var ErrDuplicate = errors.New("article already exists")

type Repository interface {
	Exists(ctx context.Context, source, originalID string) (bool, error)
	Insert(ctx context.Context, a *Article) error
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *log.Logger
}

func NewMongoRepository(db *mongo.Database, logger *log.Logger) (Repository, error) {
	if logger == nil {
		logger = log.Default()
	}

	repo := &mongoRepository{
		col:    db.Collection("articles"),
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates the unique compound index on (source, originalId).
// The index is what makes Insert safe against concurrent runs: two writers
// racing past Exists will still produce exactly one record, with the loser
// getting a duplicate-key error.
func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "source", Value: 1},
				{Key: "originalId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "publishedAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		r.logger.Printf("failed to create indexes: %v", err)
	}
	return err
}

// Exists reports whether an article with the given (source, originalId) is
// already stored. It is a cheap pre-check only; Insert remains the
// authority on duplication.
func (r *mongoRepository) Exists(ctx context.Context, source, originalID string) (bool, error) {
	err := r.col.FindOne(
		ctx,
		bson.M{"source": source, "originalId": originalID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert persists a new article, filling in audit timestamps and zeroing
// all counters. Safe to call repeatedly with the same (source, originalId);
// repeats return ErrDuplicate instead of creating a second record.
func (r *mongoRepository) Insert(ctx context.Context, a *Article) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.CrawledAt.IsZero() {
		a.CrawledAt = now
	}
	a.Counters = Counters{}
	if a.Status == "" {
		a.Status = StatusPublished
	}

	res, err := r.col.InsertOne(ctx, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid
	}
	r.logger.Printf("inserted article %s/%s", a.Source, a.OriginalID)
	return nil
}
