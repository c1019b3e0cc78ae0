package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/fundraiser/backend/internal/models"
)

// Backend is the document store behind a Repository. Each method is a single
// document write or read; implementations must map a missing account or item
// to ErrNotFound and a duplicate username to ErrUsernameTaken.
type Backend interface {
	Insert(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	ReplaceItems(ctx context.Context, id primitive.ObjectID, items []models.Item) error
	PushInterest(ctx context.Context, id, itemID primitive.ObjectID, in models.Interest) error
	SetGoal(ctx context.Context, id primitive.ObjectID, goal *float64) error
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	RemoveItem(ctx context.Context, id, itemID primitive.ObjectID, revenue float64) error
}

// Repository is the persistence boundary for accounts. Every write is
// normalized, validated and passed through BeforeSave; a failure anywhere
// aborts the whole write.
type Repository struct {
	backend Backend
	now     func() time.Time
}

func NewRepository(backend Backend) *Repository {
	return &Repository{backend: backend, now: time.Now}
}

// prepare runs the write pipeline on a candidate document.
func (r *Repository) prepare(a *models.Account) error {
	Normalize(a)
	if err := Validate(a); err != nil {
		return err
	}
	return BeforeSave(a)
}

// Register creates an account with a hashed password.
func (r *Repository) Register(ctx context.Context, username, password string, goal *float64) (*models.Account, error) {
	now := r.now()
	a := &models.Account{
		Username:   username,
		Credential: password,
		Goal:       goal,
		Items:      []models.Item{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.prepare(a); err != nil {
		return nil, err
	}
	if err := r.backend.Insert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Authenticate returns the account when password matches. Unknown usernames
// and wrong passwords fail identically.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	a, err := r.backend.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckCredential(strings.TrimSpace(password), a.Password) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// Get loads an account by its hex id.
func (r *Repository) Get(ctx context.Context, id string) (*models.Account, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.backend.FindByID(ctx, oid)
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.backend.FindByUsername(ctx, strings.TrimSpace(username))
}

// SaveItems replaces the account's whole item list. Concurrent callers do not
// merge: the last write applied wins.
func (r *Repository) SaveItems(ctx context.Context, a *models.Account, items []models.Item) ([]models.Item, error) {
	candidate := *a
	candidate.Credential = ""
	candidate.Items = items
	if err := r.prepare(&candidate); err != nil {
		return nil, err
	}
	if err := r.backend.ReplaceItems(ctx, a.ID, candidate.Items); err != nil {
		return nil, err
	}
	return candidate.Items, nil
}

// AppendInterest adds a visitor submission to one item. The capacity bound is
// checked here and again atomically by the backend.
func (r *Repository) AppendInterest(ctx context.Context, accountID, itemID string, in models.Interest) error {
	a, err := r.Get(ctx, accountID)
	if err != nil {
		return err
	}
	iid, err := ParseID(itemID)
	if err != nil {
		return err
	}
	idx := a.FindItem(iid)
	if idx < 0 {
		return ErrNotFound
	}

	in.CreatedAt = r.now()
	NormalizeInterest(&in)
	item := a.Items[idx]
	item.Interest = append(append([]models.Interest(nil), item.Interest...), in)

	var errs ValidationErrors
	validateItem(&errs, fmt.Sprintf("items.%d", idx), &item)
	if err := errs.err(); err != nil {
		return err
	}

	err = r.backend.PushInterest(ctx, a.ID, iid, in)
	if errors.Is(err, ErrInterestFull) {
		return interestFull(idx)
	}
	return err
}

func interestFull(idx int) error {
	return Invalid(fmt.Sprintf("items.%d.interest", idx), "Too many people are interested in this item")
}

// SetGoal updates the fundraising goal. A nil goal clears it.
func (r *Repository) SetGoal(ctx context.Context, a *models.Account, goal *float64) error {
	candidate := *a
	candidate.Credential = ""
	candidate.Goal = goal
	if err := r.prepare(&candidate); err != nil {
		return err
	}
	if err := r.backend.SetGoal(ctx, a.ID, goal); err != nil {
		return err
	}
	a.Goal = goal
	return nil
}

// ChangePassword verifies current and stores a hash of next.
func (r *Repository) ChangePassword(ctx context.Context, a *models.Account, current, next string) error {
	if !CheckCredential(strings.TrimSpace(current), a.Password) {
		return ErrInvalidCredentials
	}
	candidate := *a
	candidate.Credential = next
	if err := r.prepare(&candidate); err != nil {
		return err
	}
	if err := r.backend.SetPassword(ctx, a.ID, candidate.Password); err != nil {
		return err
	}
	a.Password = candidate.Password
	return nil
}

// SellItem removes an item from the listing and adds its price to revenue.
func (r *Repository) SellItem(ctx context.Context, a *models.Account, itemID string) (*models.Item, error) {
	iid, err := ParseID(itemID)
	if err != nil {
		return nil, err
	}
	idx := a.FindItem(iid)
	if idx < 0 {
		return nil, ErrNotFound
	}
	sold := a.Items[idx]
	if err := r.backend.RemoveItem(ctx, a.ID, iid, sold.Price); err != nil {
		return nil, err
	}
	a.Revenue = RoundPrice(a.Revenue + sold.Price)
	a.Items = append(a.Items[:idx:idx], a.Items[idx+1:]...)
	return &sold, nil
}

// ParseID converts a hex id, treating malformed ids as missing documents.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}
