package webclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/auth"
	"github.com/ayush/fundraiser/backend/internal/items"
	"github.com/ayush/fundraiser/backend/internal/models"
	"github.com/ayush/fundraiser/backend/internal/server"
	"github.com/ayush/fundraiser/backend/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := account.NewRepository(store.NewMemoryStore())
	sessions := auth.NewMemorySessions()
	srv := httptest.NewServer(server.NewRouter(server.Deps{
		Auth:     auth.NewHandler(repo, sessions),
		Items:    items.NewHandler(items.NewService(repo, nil, nil)),
		Sessions: sessions,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientLoggedInAs(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := NewClient(srv.URL, nil)

	_, err := c.CurrentUser(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = c.Register(ctx, models.RegisterRequest{Username: "seller@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)

	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", me.Username)

	other := NewClient(srv.URL, nil)
	_, err = other.Login(ctx, "seller@example.com", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestEditModalAgainstServer(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := NewClient(srv.URL, nil)

	me, err := c.Register(ctx, models.RegisterRequest{Username: "seller@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	list, err := c.AddItem(ctx, models.AddItemRequest{Name: "Cup", Price: models.NewPrice(1)})
	require.NoError(t, err)

	m := NewEditModal(c, me.ID, list)
	require.NoError(t, m.Open(list[0].ID.Hex()))
	require.NoError(t, m.Change("name", "Mug"))
	require.NoError(t, m.Change("description", "Ceramic"))
	require.NoError(t, m.Change("price", "5.5"))
	require.NoError(t, m.Change("imgUrl", "http://x/y.png"))
	require.NoError(t, m.Submit(ctx))

	got := m.Items()
	require.Len(t, got, 1)
	assert.Equal(t, "Mug", got[0].Name)
	assert.Equal(t, 5.5, got[0].Price)

	fresh, err := c.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, fresh)

	t.Run("server rejection keeps the modal open with field errors", func(t *testing.T) {
		require.NoError(t, m.Open(list[0].ID.Hex()))
		require.NoError(t, m.Change("name", "   "))
		err := m.Submit(ctx)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		require.Len(t, apiErr.Fields, 1)
		assert.Equal(t, "items.0.name", apiErr.Fields[0].Field)
		assert.Equal(t, Failed, m.State())
		assert.Equal(t, "Mug", m.Items()[0].Name)
		require.NoError(t, m.Close())
	})

	t.Run("transport failure surfaces as an error state", func(t *testing.T) {
		require.NoError(t, m.Open(list[0].ID.Hex()))
		srv.Close()
		err := m.Submit(ctx)
		require.Error(t, err)
		var apiErr *APIError
		assert.False(t, errors.As(err, &apiErr))
		assert.Equal(t, Failed, m.State())
		assert.Equal(t, "Mug", m.Items()[0].Name)
	})
}

func TestShowInterestClient(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	seller := NewClient(srv.URL, nil)
	me, err := seller.Register(ctx, models.RegisterRequest{Username: "seller@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	list, err := seller.AddItem(ctx, models.AddItemRequest{Name: "Quilt"})
	require.NoError(t, err)

	visitor := NewClient(srv.URL, nil)
	req := models.InterestRequest{Name: "Ann", Email: "not-an-email", Message: "hi"}
	err = visitor.ShowInterest(ctx, me.ID, list[0].ID.Hex(), req)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "items.0.interest.0.email", apiErr.Fields[0].Field)

	req.Email = "ann@example.com"
	require.NoError(t, visitor.ShowInterest(ctx, me.ID, list[0].ID.Hex(), req))
}
