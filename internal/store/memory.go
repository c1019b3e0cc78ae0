package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/models"
)

// MemoryStore is an in-process account backend with the same single-document
// semantics as MongoStore. Used by tests and when no MONGO_URI is configured.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[primitive.ObjectID]*models.Account)}
}

func (s *MemoryStore) Insert(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == a.Username {
			return account.ErrUsernameTaken
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	s.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == username {
			return cloneAccount(a), nil
		}
	}
	return nil, account.ErrNotFound
}

func (s *MemoryStore) ReplaceItems(_ context.Context, id primitive.ObjectID, items []models.Item) error {
	return s.mutate(id, func(a *models.Account) error {
		tmp := models.Account{Items: items}
		a.Items = tmp.CloneItems()
		return nil
	})
}

func (s *MemoryStore) PushInterest(_ context.Context, id, itemID primitive.ObjectID, in models.Interest) error {
	return s.mutate(id, func(a *models.Account) error {
		idx := a.FindItem(itemID)
		if idx < 0 {
			return account.ErrNotFound
		}
		if len(a.Items[idx].Interest) >= account.MaxInterest {
			return account.ErrInterestFull
		}
		a.Items[idx].Interest = append(a.Items[idx].Interest, in)
		return nil
	})
}

func (s *MemoryStore) SetGoal(_ context.Context, id primitive.ObjectID, goal *float64) error {
	return s.mutate(id, func(a *models.Account) error {
		if goal == nil {
			a.Goal = nil
			return nil
		}
		g := *goal
		a.Goal = &g
		return nil
	})
}

func (s *MemoryStore) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return s.mutate(id, func(a *models.Account) error {
		a.Password = hash
		return nil
	})
}

func (s *MemoryStore) RemoveItem(_ context.Context, id, itemID primitive.ObjectID, revenue float64) error {
	return s.mutate(id, func(a *models.Account) error {
		idx := a.FindItem(itemID)
		if idx < 0 {
			return account.ErrNotFound
		}
		a.Items = append(a.Items[:idx], a.Items[idx+1:]...)
		a.Revenue += revenue
		return nil
	})
}

func (s *MemoryStore) mutate(id primitive.ObjectID, fn func(a *models.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	if err := fn(a); err != nil {
		return err
	}
	a.UpdatedAt = time.Now()
	return nil
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.Credential = ""
	c.Items = a.CloneItems()
	if a.Goal != nil {
		g := *a.Goal
		c.Goal = &g
	}
	return &c
}
