package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugondev/go-reserve/internal/storage"
)

type mongoEventRepository struct {
	collection *mongo.Collection
}

// Save ignores events that were already stored.
func (r *mongoEventRepository) Save(ctx context.Context, event *storage.EventModel) error {
	_, err := r.collection.InsertOne(ctx, event)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *mongoEventRepository) SaveBatch(ctx context.Context, events []*storage.EventModel) error {
	_, err := storage.InsertDocuments(ctx, r.collection, events)
	return err
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*storage.EventModel, error) {
	var event storage.EventModel
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *mongoEventRepository) FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*storage.EventModel, error) {
	return r.find(ctx, bson.M{"pool": pool}, limit, offset)
}

func (r *mongoEventRepository) FindByEventName(ctx context.Context, eventName string, limit int, offset int) ([]*storage.EventModel, error) {
	return r.find(ctx, bson.M{"event_name": eventName}, limit, offset)
}

func (r *mongoEventRepository) FindByUser(ctx context.Context, user string, limit int, offset int) ([]*storage.EventModel, error) {
	return r.find(ctx, bson.M{"user": user}, limit, offset)
}

func (r *mongoEventRepository) FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*storage.EventModel, error) {
	return r.find(ctx, bson.M{"slot": int64(slot)}, limit, offset)
}

func (r *mongoEventRepository) find(ctx context.Context, filter bson.M, limit int, offset int) ([]*storage.EventModel, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)).SetSort(bson.D{{Key: "slot", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*storage.EventModel
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

type mongoPoolRepository struct {
	collection *mongo.Collection
}

// Upsert only replaces a snapshot taken at the same or an older slot. A stale
// snapshot matches no document, its upsert collides on _id and is dropped.
func (r *mongoPoolRepository) Upsert(ctx context.Context, p *storage.PoolModel) error {
	filter := bson.M{"_id": p.ID, "slot": bson.M{"$lte": int64(p.Slot)}}
	update := bson.M{
		"$set": bson.M{
			"rate":                 p.Rate,
			"quote_vault_lamports": p.QuoteVaultLamports,
			"base_vault_amount":    p.BaseVaultAmount,
			"share_supply":         p.ShareSupply,
			"slot":                 p.Slot,
			"updated_at":           p.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"base_mint":   p.BaseMint,
			"authority":   p.Authority,
			"base_vault":  p.BaseVault,
			"quote_vault": p.QuoteVault,
			"share_mint":  p.ShareMint,
			"created_at":  p.CreatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *mongoPoolRepository) FindByBaseMint(ctx context.Context, baseMint string) (*storage.PoolModel, error) {
	var p storage.PoolModel
	err := r.collection.FindOne(ctx, bson.M{"base_mint": baseMint}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoPoolRepository) List(ctx context.Context, limit int, offset int) ([]*storage.PoolModel, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)).SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pools []*storage.PoolModel
	if err := cursor.All(ctx, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}
