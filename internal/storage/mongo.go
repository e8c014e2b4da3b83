package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/types"
)

const linkIndexName = "link_unique"

// MongoStore keeps articles in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects, pings, and makes sure the unique link index exists.
// An unreachable server is reported as types.ErrStoreUnavailable.
func NewMongoStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetTimeout(cfg.WriteTimeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "ping", Err: fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)}
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger.With("component", "mongo_store", "database", cfg.Database, "collection", cfg.Collection),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		// Existing duplicate links block the index; dedup still works in-run.
		s.logger.Warn("unique link index not created", "error", err)
	}
	return s, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// EnsureIndexes creates the unique index on link if it is missing.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "link", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(linkIndexName),
	})
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "create index", Err: err}
	}
	return nil
}

// Links reads every stored link with a link-only projection.
func (s *MongoStore) Links(ctx context.Context) ([]string, error) {
	cur, err := s.collection.Find(ctx, bson.D{},
		options.Find().SetProjection(bson.D{{Key: "link", Value: 1}, {Key: "_id", Value: 0}}))
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find links", Err: err}
	}
	defer cur.Close(ctx)

	var links []string
	for cur.Next(ctx) {
		var doc struct {
			Link string `bson:"link"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "decode link", Err: err}
		}
		if doc.Link != "" {
			links = append(links, doc.Link)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find links", Err: err}
	}
	return links, nil
}

// InsertMany issues one unordered bulk insert.
func (s *MongoStore) InsertMany(ctx context.Context, records []types.ArticleRecord) (InsertResult, error) {
	if len(records) == 0 {
		return InsertResult{}, nil
	}

	docs := make([]any, len(records))
	for i := range records {
		docs[i] = records[i]
	}

	_, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return InsertResult{Inserted: len(records)}, nil
	}
	return classifyBulkError(len(records), err, s.Name())
}

// classifyBulkError splits a bulk write failure into duplicate-link
// conflicts and genuine failures. Errors that are not per-document write
// errors mean nothing was written.
func classifyBulkError(n int, err error, backend string) (InsertResult, error) {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
		return InsertResult{}, &types.StorageError{Backend: backend, Op: "insert many", Err: err}
	}

	res := InsertResult{}
	for _, we := range bwe.WriteErrors {
		if isDuplicateKey(we.Code) {
			res.Conflicts++
			continue
		}
		res.Failed = append(res.Failed, we.Index)
	}
	res.Inserted = n - len(bwe.WriteErrors)

	if len(res.Failed) > 0 || bwe.WriteConcernError != nil {
		return res, &types.StorageError{Backend: backend, Op: "insert many", Err: err}
	}
	return res, nil
}

// Server codes for a unique index violation.
func isDuplicateKey(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}

// Find runs the read path, newest first, without the internal _id.
func (s *MongoStore) Find(ctx context.Context, q Query) ([]types.ArticleRecord, error) {
	filter := bson.D{}
	if q.Source != "" {
		filter = append(filter, bson.E{Key: "source", Value: q.Source})
	}

	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 0}}).
		SetSort(bson.D{{Key: "scraped_at", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
	}
	var out []types.ArticleRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "decode", Err: err}
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	s.logger.Debug("mongodb store closing")
	return s.client.Disconnect(ctx)
}
