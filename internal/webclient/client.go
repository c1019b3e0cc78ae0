// Package webclient is the browser-side contract of the fundraiser API: an
// HTTP client for the endpoints the item pages call and the edit-item modal
// state machine built on it.
package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/httpx"
	"github.com/ayush/fundraiser/backend/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []account.ValidationError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, account.ValidationErrors(e.Fields).Error())
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Client talks to the fundraiser API and keeps the session cookie.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient gets a fresh one
// with its own cookie jar.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Jar: jar}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type userEnvelope struct {
	User models.PublicUser `json:"user"`
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.PublicUser, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/users/register", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.PublicUser, error) {
	var out userEnvelope
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// CurrentUser calls GET /api/users, used for the "logged in as" display.
func (c *Client) CurrentUser(ctx context.Context) (*models.PublicUser, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ListItems(ctx context.Context) ([]models.Item, error) {
	var out models.ItemsResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/items", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) AddItem(ctx context.Context, req models.AddItemRequest) ([]models.Item, error) {
	var out models.ItemsResponse
	if err := c.do(ctx, http.MethodPost, "/api/users/addItem", req, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// EditItem calls PUT /api/users/editItem and returns the full updated list.
func (c *Client) EditItem(ctx context.Context, req models.EditItemRequest) ([]models.Item, error) {
	var out models.ItemsResponse
	if err := c.do(ctx, http.MethodPut, "/api/users/editItem", req, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) ShowInterest(ctx context.Context, accountID, itemID string, req models.InterestRequest) error {
	path := fmt.Sprintf("/api/fundraisers/%s/items/%s/interest", accountID, itemID)
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// checkResp turns a non-2xx response into an *APIError.
func checkResp(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	var body httpx.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error, Fields: body.Fields}
}
