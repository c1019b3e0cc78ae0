package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is one registered fundraiser, stored as a single MongoDB document.
// Items and their interest submissions are embedded, never referenced.
type Account struct {
	ID       primitive.ObjectID `json:"id"                bson:"_id,omitempty"`
	Username string             `json:"username"          bson:"username"`
	Password string             `json:"-"                 bson:"password,omitempty"` // bcrypt hash, never serialize

	// Credential is a plaintext password waiting for the next write.
	// It is hashed into Password before persisting and is never stored.
	Credential string `json:"-" bson:"-"`

	Goal      *float64  `json:"goal,omitempty"    bson:"goal,omitempty"`
	Revenue   float64   `json:"revenue"           bson:"revenue"`
	Items     []Item    `json:"items"             bson:"items"`
	CreatedAt time.Time `json:"created_at"        bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at"        bson:"updated_at"`
}

// Item is a listing embedded in exactly one Account.
type Item struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id"`
	Name        string             `json:"name"        bson:"name"`
	Description string             `json:"description" bson:"description,omitempty"`
	Price       float64            `json:"price"       bson:"price"`
	ImgURL      string             `json:"imgUrl"      bson:"img_url,omitempty"`
	Interest    []Interest         `json:"interest"    bson:"interest"`
}

// Interest is a visitor's contact submission for an Item.
type Interest struct {
	Name      string    `json:"name"       bson:"name"`
	Email     string    `json:"email"      bson:"email"`
	Message   string    `json:"message"    bson:"message"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// FindItem returns the index of the item with the given id, or -1.
func (a *Account) FindItem(id primitive.ObjectID) int {
	for i := range a.Items {
		if a.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneItems returns a deep copy of the item list so callers can mutate a
// draft without touching the loaded document. Interest lists in the copy are
// never nil; MongoDB cannot $push into a null field.
func (a *Account) CloneItems() []Item {
	out := make([]Item, len(a.Items))
	for i, it := range a.Items {
		out[i] = it
		out[i].Interest = make([]Interest, len(it.Interest))
		copy(out[i].Interest, it.Interest)
	}
	return out
}

// PublicUser is what GET /api/users reports for the logged in account.
type PublicUser struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Goal     *float64 `json:"goal,omitempty"`
	Revenue  float64  `json:"revenue"`
}

func (a *Account) Public() PublicUser {
	return PublicUser{
		ID:       a.ID.Hex(),
		Username: a.Username,
		Goal:     a.Goal,
		Revenue:  a.Revenue,
	}
}

// Fundraiser is the visitor-facing view of an account.
type Fundraiser struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Goal     *float64 `json:"goal,omitempty"`
	Revenue  float64  `json:"revenue"`
	Items    []Item   `json:"items"`
}

// Sale is one row of the relational sales ledger.
type Sale struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"account_id"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Amount    float64   `json:"amount"`
	SoldAt    time.Time `json:"sold_at"`
}
