package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/models"
)

// MongoStore keeps one document per account in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("accounts")}
}

// EnsureIndexes creates the unique username index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, a *models.Account) error {
	res, err := s.col.InsertOne(ctx, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account.ErrUsernameTaken
		}
		return fmt.Errorf("mongo insert: %w", err)
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var a models.Account
	if err := s.col.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	if a.Items == nil {
		a.Items = []models.Item{}
	}
	return &a, nil
}

// ReplaceItems overwrites the embedded item array in a single update.
func (s *MongoStore) ReplaceItems(ctx context.Context, id primitive.ObjectID, items []models.Item) error {
	return s.update(ctx, bson.M{"_id": id}, replaceItemsUpdate(items, time.Now()))
}

// replaceItemsUpdate builds the $set for a whole item list. Every interest
// field is written as an array so a later $push can target it.
func replaceItemsUpdate(items []models.Item, now time.Time) bson.M {
	if items == nil {
		items = []models.Item{}
	}
	for i := range items {
		if items[i].Interest == nil {
			items[i].Interest = []models.Interest{}
		}
	}
	return bson.M{"$set": bson.M{"items": items, "updated_at": now}}
}

// interestFilter only matches while the item is below capacity.
func interestFilter(id, itemID primitive.ObjectID) bson.M {
	full := fmt.Sprintf("interest.%d", account.MaxInterest-1)
	return bson.M{
		"_id": id,
		"items": bson.M{"$elemMatch": bson.M{
			"_id": itemID,
			full:  bson.M{"$exists": false},
		}},
	}
}

func pushInterestUpdate(in models.Interest, now time.Time) bson.M {
	return bson.M{
		"$push": bson.M{"items.$.interest": in},
		"$set":  bson.M{"updated_at": now},
	}
}

// PushInterest appends to one item's interest list. The filter only matches
// while the list is below capacity, so concurrent submissions cannot exceed it.
func (s *MongoStore) PushInterest(ctx context.Context, id, itemID primitive.ObjectID, in models.Interest) error {
	res, err := s.col.UpdateOne(ctx, interestFilter(id, itemID), pushInterestUpdate(in, time.Now()))
	if err != nil {
		return fmt.Errorf("mongo push interest: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.col.CountDocuments(ctx, bson.M{"_id": id, "items._id": itemID})
	if err != nil {
		return fmt.Errorf("mongo count: %w", err)
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return account.ErrInterestFull
}

// SetGoal sets the goal, or removes it when goal is nil.
func (s *MongoStore) SetGoal(ctx context.Context, id primitive.ObjectID, goal *float64) error {
	update := bson.M{"$unset": bson.M{"goal": ""}, "$set": bson.M{"updated_at": time.Now()}}
	if goal != nil {
		update = bson.M{"$set": bson.M{"goal": *goal, "updated_at": time.Now()}}
	}
	return s.update(ctx, bson.M{"_id": id}, update)
}

func (s *MongoStore) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password": hash, "updated_at": time.Now()},
	})
}

// RemoveItem pulls the item and credits revenue in the same document write.
func (s *MongoStore) RemoveItem(ctx context.Context, id, itemID primitive.ObjectID, revenue float64) error {
	return s.update(ctx, bson.M{"_id": id, "items._id": itemID}, bson.M{
		"$pull": bson.M{"items": bson.M{"_id": itemID}},
		"$inc":  bson.M{"revenue": revenue},
		"$set":  bson.M{"updated_at": time.Now()},
	})
}

func (s *MongoStore) update(ctx context.Context, filter, update bson.M) error {
	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}
