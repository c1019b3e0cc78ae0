package webclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/models"
)

// ModalState is where the edit-item modal is in its lifecycle.
type ModalState int

const (
	Hidden ModalState = iota
	Visible
	Editing
	Submitting
	Failed
)

func (s ModalState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("ModalState(%d)", int(s))
	}
}

var (
	ErrNotOpen       = errors.New("edit modal is not open")
	ErrBusy          = errors.New("edit is already being submitted")
	ErrUnknownItem   = errors.New("item is not in the current list")
	ErrUnknownField  = errors.New("unknown form field")
	ErrAlreadyActive = errors.New("edit modal is already open")
)

// ItemEditor sends an edit to the server. *Client implements it.
type ItemEditor interface {
	EditItem(ctx context.Context, req models.EditItemRequest) ([]models.Item, error)
}

// Draft holds the form's text inputs.
type Draft struct {
	Name        string
	Description string
	Price       string
	ImgURL      string
}

// EditModal is the edit-item form. It keeps a local copy of the account's
// items and replaces it only with the server's response to a successful edit.
//
//	hidden -> visible (Open) -> editing (Change) -> submitting (Submit)
//	submitting -> hidden on success, -> error on failure
//	error -> submitting (Submit again) or hidden (Close)
type EditModal struct {
	editor    ItemEditor
	accountID string

	mu     sync.Mutex
	state  ModalState
	itemID string
	draft  Draft
	items  []models.Item
	err    error
}

func NewEditModal(editor ItemEditor, accountID string, items []models.Item) *EditModal {
	return &EditModal{editor: editor, accountID: accountID, items: items}
}

// Open shows the modal for itemID with the form filled from the current item.
func (m *EditModal) Open(itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Hidden {
		return ErrAlreadyActive
	}
	var found *models.Item
	for i := range m.items {
		if m.items[i].ID.Hex() == itemID {
			found = &m.items[i]
			break
		}
	}
	if found == nil {
		return ErrUnknownItem
	}
	m.itemID = itemID
	m.draft = Draft{
		Name:        found.Name,
		Description: found.Description,
		Price:       strconv.FormatFloat(found.Price, 'f', -1, 64),
		ImgURL:      found.ImgURL,
	}
	m.err = nil
	m.state = Visible
	return nil
}

// Change sets one form field by its input name.
func (m *EditModal) Change(field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Hidden:
		return ErrNotOpen
	case Submitting:
		return ErrBusy
	}
	switch field {
	case "name":
		m.draft.Name = value
	case "description":
		m.draft.Description = value
	case "price":
		m.draft.Price = value
	case "imgUrl":
		m.draft.ImgURL = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	m.state = Editing
	return nil
}

// Submit sends the whole draft. The modal stays in submitting until the
// server answers; a failure moves it to the error state and keeps the draft.
func (m *EditModal) Submit(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case Hidden:
		m.mu.Unlock()
		return ErrNotOpen
	case Submitting:
		m.mu.Unlock()
		return ErrBusy
	}
	req, err := m.request()
	if err != nil {
		m.fail(err)
		m.mu.Unlock()
		return err
	}
	m.state = Submitting
	m.err = nil
	m.mu.Unlock()

	items, err := m.editor.EditItem(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		slog.Warn("edit item failed", "item_id", req.ItemID, "error", err)
		m.fail(err)
		return err
	}
	m.items = items
	m.draft = Draft{}
	m.itemID = ""
	m.state = Hidden
	return nil
}

func (m *EditModal) fail(err error) {
	m.err = err
	m.state = Failed
}

// request builds the payload. Caller holds mu.
func (m *EditModal) request() (models.EditItemRequest, error) {
	name, desc, img := m.draft.Name, m.draft.Description, m.draft.ImgURL
	req := models.EditItemRequest{
		AccountID:   m.accountID,
		ItemID:      m.itemID,
		Name:        &name,
		Description: &desc,
		ImgURL:      &img,
	}
	if p := strings.TrimSpace(m.draft.Price); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return req, account.Invalid("price", fmt.Sprintf("%s is not a valid price", p))
		}
		req.Price = models.NewPrice(v)
	}
	return req, nil
}

// Close hides the modal and discards the draft. It is refused while a
// submission is in flight.
func (m *EditModal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Submitting {
		return ErrBusy
	}
	m.state = Hidden
	m.draft = Draft{}
	m.itemID = ""
	m.err = nil
	return nil
}

func (m *EditModal) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err is the error shown while the modal is in the error state.
func (m *EditModal) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *EditModal) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Items returns the modal's copy of the item list.
func (m *EditModal) Items() []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Item(nil), m.items...)
}
