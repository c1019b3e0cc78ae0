package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/models"
)

func marshalRaw(t *testing.T, doc interface{}) bson.Raw {
	t.Helper()
	data, err := bson.Marshal(doc)
	require.NoError(t, err)
	return bson.Raw(data)
}

func TestReplaceItemsUpdateWritesInterestArrays(t *testing.T) {
	items := []models.Item{
		{ID: primitive.NewObjectID(), Name: "Mug"},
		{ID: primitive.NewObjectID(), Name: "Lamp", Interest: []models.Interest{}},
		{ID: primitive.NewObjectID(), Name: "Quilt", Interest: []models.Interest{{Name: "Ann"}}},
	}
	raw := marshalRaw(t, replaceItemsUpdate(items, time.Now()))

	for _, idx := range []string{"0", "1", "2"} {
		assert.Equal(t, bsontype.Array, raw.Lookup("$set", "items", idx, "interest").Type, idx)
	}

	empty := marshalRaw(t, replaceItemsUpdate(nil, time.Now()))
	assert.Equal(t, bsontype.Array, empty.Lookup("$set", "items").Type)
}

func TestInterestFilterGuardsCapacity(t *testing.T) {
	id, itemID := primitive.NewObjectID(), primitive.NewObjectID()
	raw := marshalRaw(t, interestFilter(id, itemID))

	assert.Equal(t, id, raw.Lookup("_id").ObjectID())
	match := raw.Lookup("items", "$elemMatch")
	assert.Equal(t, itemID, match.Document().Lookup("_id").ObjectID())
	assert.False(t, match.Document().Lookup("interest.1", "$exists").Boolean())

	push := marshalRaw(t, pushInterestUpdate(models.Interest{Name: "Ann"}, time.Now()))
	assert.Equal(t, "Ann", push.Lookup("$push", "items.$.interest", "name").StringValue())
}

// TestMongoStoreIntegration runs against a real server when MONGO_URI is set.
func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))
	db := client.Database("fundraiser_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	s := NewMongoStore(db)
	require.NoError(t, s.EnsureIndexes(ctx))
	repo := account.NewRepository(s)

	a, err := repo.Register(ctx, "seller@example.com", "Passw0rd!", nil)
	require.NoError(t, err)
	_, err = repo.Register(ctx, "seller@example.com", "Passw0rd!", nil)
	assert.ErrorIs(t, err, account.ErrUsernameTaken)

	quilt := models.Item{ID: primitive.NewObjectID(), Name: "Quilt", Price: 40}
	scarf := models.Item{ID: primitive.NewObjectID(), Name: "Scarf", Price: 15}
	_, err = repo.SaveItems(ctx, a, []models.Item{quilt, scarf})
	require.NoError(t, err)

	loaded, err := repo.Get(ctx, a.ID.Hex())
	require.NoError(t, err)
	edited := loaded.CloneItems()
	edited[0].Description = "Handmade"
	_, err = repo.SaveItems(ctx, loaded, edited)
	require.NoError(t, err)

	var doc bson.Raw
	require.NoError(t, db.Collection("accounts").FindOne(ctx, bson.M{"_id": a.ID}).Decode(&doc))
	assert.Equal(t, bsontype.Array, doc.Lookup("items", "0", "interest").Type)
	assert.Equal(t, bsontype.Array, doc.Lookup("items", "1", "interest").Type)

	in := models.Interest{Name: "Ann", Email: "ann@example.com", Message: "I'd like this"}
	require.NoError(t, repo.AppendInterest(ctx, a.ID.Hex(), quilt.ID.Hex(), in))
	require.NoError(t, repo.AppendInterest(ctx, a.ID.Hex(), quilt.ID.Hex(), in))
	_, ok := account.AsValidation(repo.AppendInterest(ctx, a.ID.Hex(), quilt.ID.Hex(), in))
	assert.True(t, ok, "third submission is rejected")
	assert.ErrorIs(t, repo.AppendInterest(ctx, a.ID.Hex(), primitive.NewObjectID().Hex(), in), account.ErrNotFound)

	loaded, err = repo.Get(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, loaded.Items[0].Interest, 2)
	assert.Equal(t, "Handmade", loaded.Items[0].Description)

	sold, err := repo.SellItem(ctx, loaded, scarf.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Scarf", sold.Name)
	loaded, err = repo.Get(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 1)
	assert.Equal(t, 15.0, loaded.Revenue)
}
