package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PriceInput accepts a price as a JSON number or as the numeric string a
// text input produces ("5.5"). An empty string or null leaves it unset.
type PriceInput struct {
	Value float64
	Set   bool
}

func NewPrice(v float64) PriceInput {
	return PriceInput{Value: v, Set: true}
}

func (p *PriceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = PriceInput{}
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*p = PriceInput{}
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("price %q is not a number", raw)
	}
	*p = PriceInput{Value: v, Set: true}
	return nil
}

func (p PriceInput) MarshalJSON() ([]byte, error) {
	if !p.Set {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// AddItemRequest is the JSON body for POST /api/users/addItem.
type AddItemRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       PriceInput `json:"price"`
	ImgURL      string     `json:"imgUrl"`
}

// EditItemRequest is the JSON body for PUT /api/users/editItem.
// AccountID and ItemID are required; nil draft fields are left unchanged.
type EditItemRequest struct {
	AccountID   string     `json:"accountId"`
	ItemID      string     `json:"itemId"`
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Price       PriceInput `json:"price"`
	ImgURL      *string    `json:"imgUrl,omitempty"`
}

// ItemsResponse is returned by every item write.
type ItemsResponse struct {
	Items []Item `json:"items"`
}

// InterestRequest is the visitor contact form body.
type InterestRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
