package items

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/models"
)

// ImagePrefix is the public path uploaded images are served under.
const ImagePrefix = "/api/images/"

// FileStore holds uploaded item images.
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, key string) error
}

// Ledger records completed sales.
type Ledger interface {
	Record(ctx context.Context, sale *models.Sale) error
	ListByAccount(ctx context.Context, accountID string) ([]models.Sale, error)
}

// Service implements the item operations of one account on top of the
// account repository. files and ledger may be nil.
type Service struct {
	accounts *account.Repository
	files    FileStore
	ledger   Ledger
}

func NewService(accounts *account.Repository, files FileStore, ledger Ledger) *Service {
	return &Service{accounts: accounts, files: files, ledger: ledger}
}

// List returns the account's items.
func (s *Service) List(ctx context.Context, accountID string) ([]models.Item, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return a.Items, nil
}

// AddItem appends a new listing and returns the updated list.
func (s *Service) AddItem(ctx context.Context, accountID string, req models.AddItemRequest) ([]models.Item, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	items := append(a.CloneItems(), models.Item{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Value,
		ImgURL:      req.ImgURL,
		Interest:    []models.Interest{},
	})
	return s.accounts.SaveItems(ctx, a, items)
}

// EditItem applies a draft to one item of the session's account and returns
// the full updated list. The draft must name both the account and the item.
func (s *Service) EditItem(ctx context.Context, sessionAccountID string, req models.EditItemRequest) ([]models.Item, error) {
	var missing account.ValidationErrors
	if strings.TrimSpace(req.AccountID) == "" {
		missing = append(missing, account.ValidationError{Field: "accountId", Reason: "An account id is required to edit an item"})
	}
	if strings.TrimSpace(req.ItemID) == "" {
		missing = append(missing, account.ValidationError{Field: "itemId", Reason: "An item id is required to edit an item"})
	}
	if len(missing) > 0 {
		return nil, missing
	}
	if strings.TrimSpace(req.AccountID) != sessionAccountID {
		return nil, account.ErrForbidden
	}

	a, err := s.accounts.Get(ctx, sessionAccountID)
	if err != nil {
		return nil, err
	}
	itemID, err := account.ParseID(req.ItemID)
	if err != nil {
		return nil, err
	}
	idx := a.FindItem(itemID)
	if idx < 0 {
		return nil, account.ErrNotFound
	}

	items := a.CloneItems()
	applyDraft(&items[idx], req)
	return s.accounts.SaveItems(ctx, a, items)
}

func applyDraft(it *models.Item, req models.EditItemRequest) {
	if req.Name != nil {
		it.Name = *req.Name
	}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if req.Price.Set {
		it.Price = req.Price.Value
	}
	if req.ImgURL != nil {
		it.ImgURL = *req.ImgURL
	}
}

// DeleteItem removes a listing and any image uploaded for it.
func (s *Service) DeleteItem(ctx context.Context, accountID, itemID string) ([]models.Item, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	iid, err := account.ParseID(itemID)
	if err != nil {
		return nil, err
	}
	idx := a.FindItem(iid)
	if idx < 0 {
		return nil, account.ErrNotFound
	}

	removed := a.Items[idx]
	items := a.CloneItems()
	items = append(items[:idx], items[idx+1:]...)
	saved, err := s.accounts.SaveItems(ctx, a, items)
	if err != nil {
		return nil, err
	}
	s.removeImage(ctx, removed.ImgURL)
	return saved, nil
}

// ShowInterest records a visitor's contact submission for an item.
func (s *Service) ShowInterest(ctx context.Context, accountID, itemID string, req models.InterestRequest) error {
	return s.accounts.AppendInterest(ctx, accountID, itemID, models.Interest{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
}

// UploadImage stores an image for an item and points the item at it.
func (s *Service) UploadImage(ctx context.Context, accountID, itemID, filename string, r io.Reader, size int64, contentType string) ([]models.Item, error) {
	if s.files == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, account.Invalid("image", "Only image uploads are accepted")
	}

	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	iid, err := account.ParseID(itemID)
	if err != nil {
		return nil, err
	}
	idx := a.FindItem(iid)
	if idx < 0 {
		return nil, account.ErrNotFound
	}

	key := fmt.Sprintf("%s/%s/%s%s", a.ID.Hex(), iid.Hex(), uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if err := s.files.Upload(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}

	previous := a.Items[idx].ImgURL
	items := a.CloneItems()
	items[idx].ImgURL = ImagePrefix + key
	saved, err := s.accounts.SaveItems(ctx, a, items)
	if err != nil {
		s.removeImage(ctx, ImagePrefix+key)
		return nil, err
	}
	s.removeImage(ctx, previous)
	return saved, nil
}

// OpenImage returns an uploaded image by key.
func (s *Service) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if s.files == nil || key == "" {
		return nil, "", account.ErrNotFound
	}
	rc, ct, err := s.files.Open(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("open image %s: %w", key, err)
	}
	return rc, ct, nil
}

// removeImage deletes an image this service uploaded. External URLs are left alone.
func (s *Service) removeImage(ctx context.Context, imgURL string) {
	key, ok := strings.CutPrefix(imgURL, ImagePrefix)
	if !ok || s.files == nil {
		return
	}
	if err := s.files.Remove(ctx, key); err != nil {
		slog.Warn("image remove failed", "key", key, "error", err)
	}
}

// SellItem takes an item off the listing, credits its price to revenue and
// records the sale in the ledger.
func (s *Service) SellItem(ctx context.Context, accountID, itemID string) (*models.Sale, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sold, err := s.accounts.SellItem(ctx, a, itemID)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		AccountID: a.ID.Hex(),
		ItemID:    sold.ID.Hex(),
		ItemName:  sold.Name,
		Amount:    sold.Price,
	}
	if s.ledger != nil {
		// The account write already happened; a ledger failure only loses the report row.
		if err := s.ledger.Record(ctx, sale); err != nil {
			slog.Error("sale not recorded", "account_id", sale.AccountID, "item_id", sale.ItemID, "error", err)
		}
	}
	return sale, nil
}

// Sales lists recorded sales, newest first.
func (s *Service) Sales(ctx context.Context, accountID string) ([]models.Sale, error) {
	if s.ledger == nil {
		return []models.Sale{}, nil
	}
	return s.ledger.ListByAccount(ctx, accountID)
}

// SetGoal updates the account's fundraising goal.
func (s *Service) SetGoal(ctx context.Context, accountID string, goal *float64) (*models.Account, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetGoal(ctx, a, goal); err != nil {
		return nil, err
	}
	return a, nil
}

// Fundraiser returns the visitor-facing view of an account. Interest
// submissions are private to the owner and are not included.
func (s *Service) Fundraiser(ctx context.Context, accountID string) (*models.Fundraiser, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	items := a.CloneItems()
	for i := range items {
		items[i].Interest = []models.Interest{}
	}
	return &models.Fundraiser{
		ID:       a.ID.Hex(),
		Username: a.Username,
		Goal:     a.Goal,
		Revenue:  a.Revenue,
		Items:    items,
	}, nil
}
