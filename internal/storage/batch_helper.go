package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const duplicateKeyCode = 11000

// InsertDocuments inserts docs unordered into collection and returns how many were
// written. Documents whose _id already exists are skipped without error, so replaying
// a batch is harmless.
func InsertDocuments[T any](ctx context.Context, collection *mongo.Collection, docs []T) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	items := make([]interface{}, len(docs))
	for i, d := range docs {
		items[i] = d
	}

	res, err := collection.InsertMany(ctx, items, options.InsertMany().SetOrdered(false))
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err == nil {
		return inserted, nil
	}

	var bulk mongo.BulkWriteException
	if errors.As(err, &bulk) && bulk.WriteConcernError == nil {
		for _, we := range bulk.WriteErrors {
			if we.Code != duplicateKeyCode {
				return inserted, err
			}
		}
		return len(docs) - len(bulk.WriteErrors), nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return inserted, nil
	}
	return inserted, err
}

// BatchSender is implemented by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ExecBatch queues one statement per item and sends them in a single round trip.
// It returns the number of affected rows summed over all statements.
func ExecBatch[T any](ctx context.Context, db BatchSender, items []T, queue func(b *pgx.Batch, item T) error) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i, item := range items {
		if err := queue(batch, item); err != nil {
			return 0, fmt.Errorf("queue item %d: %w", i, err)
		}
	}

	br := db.SendBatch(ctx, batch)
	var affected int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			return affected, errors.Join(fmt.Errorf("exec item %d: %w", i, err), br.Close())
		}
		affected += tag.RowsAffected()
	}
	return affected, br.Close()
}
