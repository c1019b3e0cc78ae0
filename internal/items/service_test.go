package items

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/models"
	"github.com/ayush/fundraiser/backend/internal/store"
)

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeFiles) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeFiles) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, "", errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), f.types[key], nil
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type fakeLedger struct {
	sales []models.Sale
	err   error
}

func (l *fakeLedger) Record(_ context.Context, sale *models.Sale) error {
	if l.err != nil {
		return l.err
	}
	sale.ID = int64(len(l.sales) + 1)
	l.sales = append(l.sales, *sale)
	return nil
}

func (l *fakeLedger) ListByAccount(_ context.Context, accountID string) ([]models.Sale, error) {
	var out []models.Sale
	for _, s := range l.sales {
		if s.AccountID == accountID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fixture struct {
	svc       *Service
	files     *fakeFiles
	ledger    *fakeLedger
	accountID string
	itemID    string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := account.NewRepository(store.NewMemoryStore())
	a, err := repo.Register(ctx, "seller@example.com", "Passw0rd!", nil)
	require.NoError(t, err)

	f := &fixture{files: newFakeFiles(), ledger: &fakeLedger{}, accountID: a.ID.Hex()}
	f.svc = NewService(repo, f.files, f.ledger)

	items, err := f.svc.AddItem(ctx, f.accountID, models.AddItemRequest{
		Name:        "Teapot",
		Description: "Blue",
		Price:       models.NewPrice(12.346),
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	f.itemID = items[0].ID.Hex()
	return f
}

func strPtr(s string) *string { return &s }

func TestAddItem(t *testing.T) {
	f := setup(t)
	items, err := f.svc.List(context.Background(), f.accountID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Teapot", items[0].Name)
	assert.Equal(t, 12.35, items[0].Price)
	assert.NotNil(t, items[0].Interest)

	_, err = f.svc.AddItem(context.Background(), f.accountID, models.AddItemRequest{Name: "  "})
	_, ok := account.AsValidation(err)
	assert.True(t, ok)
}

func TestEditItem(t *testing.T) {
	ctx := context.Background()

	t.Run("applies the draft and returns the full list", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.AddItem(ctx, f.accountID, models.AddItemRequest{Name: "Lamp", Price: models.NewPrice(20)})
		require.NoError(t, err)

		items, err := f.svc.EditItem(ctx, f.accountID, models.EditItemRequest{
			AccountID:   f.accountID,
			ItemID:      f.itemID,
			Name:        strPtr("Mug"),
			Description: strPtr("Ceramic"),
			Price:       models.NewPrice(5.5),
			ImgURL:      strPtr("http://x/y.png"),
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Mug", items[0].Name)
		assert.Equal(t, "Ceramic", items[0].Description)
		assert.Equal(t, 5.5, items[0].Price)
		assert.Equal(t, "http://x/y.png", items[0].ImgURL)
		assert.Equal(t, "Lamp", items[1].Name)
	})

	t.Run("unset draft fields are kept", func(t *testing.T) {
		f := setup(t)
		items, err := f.svc.EditItem(ctx, f.accountID, models.EditItemRequest{
			AccountID: f.accountID,
			ItemID:    f.itemID,
			Price:     models.NewPrice(9.999),
		})
		require.NoError(t, err)
		assert.Equal(t, "Teapot", items[0].Name)
		assert.Equal(t, 10.0, items[0].Price)
	})

	t.Run("identifiers are required", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.EditItem(ctx, f.accountID, models.EditItemRequest{Name: strPtr("Mug")})
		verrs, ok := account.AsValidation(err)
		require.True(t, ok)
		assert.Len(t, verrs, 2)
	})

	t.Run("another account is forbidden", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.EditItem(ctx, f.accountID, models.EditItemRequest{
			AccountID: primitive.NewObjectID().Hex(),
			ItemID:    f.itemID,
		})
		assert.ErrorIs(t, err, account.ErrForbidden)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.EditItem(ctx, f.accountID, models.EditItemRequest{
			AccountID: f.accountID,
			ItemID:    primitive.NewObjectID().Hex(),
		})
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("clearing the name is rejected and nothing changes", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.EditItem(ctx, f.accountID, models.EditItemRequest{
			AccountID: f.accountID,
			ItemID:    f.itemID,
			Name:      strPtr(""),
			Price:     models.NewPrice(1),
		})
		verrs, ok := account.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, "items.0.name", verrs[0].Field)

		items, err := f.svc.List(ctx, f.accountID)
		require.NoError(t, err)
		assert.Equal(t, "Teapot", items[0].Name)
		assert.Equal(t, 12.35, items[0].Price)
	})
}

func TestDeleteItemRemovesUploadedImage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	items, err := f.svc.UploadImage(ctx, f.accountID, f.itemID, "Pot.PNG", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	key := strings.TrimPrefix(items[0].ImgURL, ImagePrefix)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Contains(t, f.files.objects, key)

	items, err = f.svc.DeleteItem(ctx, f.accountID, f.itemID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotContains(t, f.files.objects, key)
}

func TestUploadImage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.UploadImage(ctx, f.accountID, f.itemID, "notes.txt", strings.NewReader("x"), 1, "text/plain")
	_, ok := account.AsValidation(err)
	assert.True(t, ok)

	first, err := f.svc.UploadImage(ctx, f.accountID, f.itemID, "a.jpg", strings.NewReader("one"), 3, "image/jpeg")
	require.NoError(t, err)
	second, err := f.svc.UploadImage(ctx, f.accountID, f.itemID, "b.jpg", strings.NewReader("two"), 3, "image/jpeg")
	require.NoError(t, err)

	oldKey := strings.TrimPrefix(first[0].ImgURL, ImagePrefix)
	newKey := strings.TrimPrefix(second[0].ImgURL, ImagePrefix)
	assert.NotContains(t, f.files.objects, oldKey, "replaced image is removed")

	rc, ct, err := f.svc.OpenImage(ctx, newKey)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(data))
	assert.Equal(t, "image/jpeg", ct)

	noFiles := NewService(f.svc.accounts, nil, nil)
	_, err = noFiles.UploadImage(ctx, f.accountID, f.itemID, "a.jpg", strings.NewReader("x"), 1, "image/jpeg")
	assert.Error(t, err)
}

func TestShowInterest(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	req := models.InterestRequest{Name: "Ann", Email: "ann@example.com", Message: "Still for sale?"}

	require.NoError(t, f.svc.ShowInterest(ctx, f.accountID, f.itemID, req))
	require.NoError(t, f.svc.ShowInterest(ctx, f.accountID, f.itemID, req))
	_, ok := account.AsValidation(f.svc.ShowInterest(ctx, f.accountID, f.itemID, req))
	assert.True(t, ok)

	items, err := f.svc.List(ctx, f.accountID)
	require.NoError(t, err)
	assert.Len(t, items[0].Interest, 2)

	pub, err := f.svc.Fundraiser(ctx, f.accountID)
	require.NoError(t, err)
	assert.Empty(t, pub.Items[0].Interest, "visitors do not see other submissions")
	assert.Equal(t, "seller@example.com", pub.Username)
}

func TestShowInterestAfterItemWrites(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	req := models.InterestRequest{Name: "Ann", Email: "ann@example.com", Message: "Still for sale?"}

	_, err := f.svc.AddItem(ctx, f.accountID, models.AddItemRequest{Name: "Lamp", Price: models.NewPrice(20)})
	require.NoError(t, err)
	items, err := f.svc.EditItem(ctx, f.accountID, models.EditItemRequest{
		AccountID:   f.accountID,
		ItemID:      f.itemID,
		Description: strPtr("Chipped"),
	})
	require.NoError(t, err)
	for _, it := range items {
		assert.NotNil(t, it.Interest, it.Name)
	}

	stored, err := f.svc.accounts.Get(ctx, f.accountID)
	require.NoError(t, err)
	for _, it := range stored.Items {
		require.NotNil(t, it.Interest, it.Name)
	}

	require.NoError(t, f.svc.ShowInterest(ctx, f.accountID, f.itemID, req))
	require.NoError(t, f.svc.ShowInterest(ctx, f.accountID, f.itemID, req))

	items, err = f.svc.List(ctx, f.accountID)
	require.NoError(t, err)
	assert.Len(t, items[0].Interest, 2)
	assert.Empty(t, items[1].Interest)
}

func TestSellItem(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	sale, err := f.svc.SellItem(ctx, f.accountID, f.itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sale.ID)
	assert.Equal(t, 12.35, sale.Amount)
	assert.Equal(t, "Teapot", sale.ItemName)

	sales, err := f.svc.Sales(ctx, f.accountID)
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	pub, err := f.svc.Fundraiser(ctx, f.accountID)
	require.NoError(t, err)
	assert.Empty(t, pub.Items)
	assert.Equal(t, 12.35, pub.Revenue)

	t.Run("ledger failure does not undo the sale", func(t *testing.T) {
		f := setup(t)
		f.ledger.err = errors.New("postgres down")
		sale, err := f.svc.SellItem(ctx, f.accountID, f.itemID)
		require.NoError(t, err)
		assert.Zero(t, sale.ID)
	})

	t.Run("no ledger lists nothing", func(t *testing.T) {
		svc := NewService(f.svc.accounts, nil, nil)
		sales, err := svc.Sales(ctx, f.accountID)
		require.NoError(t, err)
		assert.Empty(t, sales)
	})
}

func TestSetGoal(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	goal := 500.0
	a, err := f.svc.SetGoal(ctx, f.accountID, &goal)
	require.NoError(t, err)
	assert.Equal(t, 500.0, *a.Goal)

	neg := -3.0
	_, err = f.svc.SetGoal(ctx, f.accountID, &neg)
	_, ok := account.AsValidation(err)
	assert.True(t, ok)
}
