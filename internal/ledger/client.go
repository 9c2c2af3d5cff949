package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/susu3304/splitmail/internal/model"
)

// APIError is a non-2xx response from the ledger, or an error object the
// ledger returned in an otherwise successful response body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger api: status %d: %s", e.Status, e.Message)
}

// AuthError means the current token was refused. The caller should restart
// the OAuth flow rather than retry the same token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "ledger auth: " + e.Message
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
	AuthURL      string
	TokenURL     string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// CurrentUser returns the authenticated user's contact record.
func (c *Client) CurrentUser(ctx context.Context, token string) (model.Contact, error) {
	var resp struct {
		User userPayload `json:"user"`
	}
	if err := c.get(ctx, token, "get_current_user", &resp); err != nil {
		return model.Contact{}, err
	}
	return resp.User.contact(), nil
}

// Friends returns the user's friend list.
func (c *Client) Friends(ctx context.Context, token string) ([]model.Contact, error) {
	var resp struct {
		Friends []userPayload `json:"friends"`
	}
	if err := c.get(ctx, token, "get_friends", &resp); err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, len(resp.Friends))
	for i, f := range resp.Friends {
		contacts[i] = f.contact()
	}
	return contacts, nil
}

// Groups returns the user's groups.
func (c *Client) Groups(ctx context.Context, token string) ([]model.Group, error) {
	var resp struct {
		Groups []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"groups"`
	}
	if err := c.get(ctx, token, "get_groups", &resp); err != nil {
		return nil, err
	}
	groups := make([]model.Group, len(resp.Groups))
	for i, g := range resp.Groups {
		groups[i] = model.Group{ID: g.ID, Name: g.Name}
	}
	return groups, nil
}

// FindCategoryID maps a category name to the ledger's category id, following
// the ledger's parent/subcategory layout: an exact subcategory match wins,
// and a parent-category match falls through to its "Other" subcategory.
// Returns 0 when nothing matches.
func (c *Client) FindCategoryID(ctx context.Context, token, name string) (int64, error) {
	if name == "" {
		return 0, nil
	}
	var resp struct {
		Categories []categoryPayload `json:"categories"`
	}
	if err := c.get(ctx, token, "get_categories", &resp); err != nil {
		return 0, err
	}
	for _, parent := range resp.Categories {
		if strings.EqualFold(parent.Name, name) {
			for _, sub := range parent.Subcategories {
				if strings.EqualFold(sub.Name, "Other") {
					return sub.ID, nil
				}
			}
		}
		for _, sub := range parent.Subcategories {
			if strings.EqualFold(sub.Name, name) {
				return sub.ID, nil
			}
		}
	}
	return 0, nil
}

// Expense is one ledger-side expense as returned by the listing endpoint.
type Expense struct {
	ID           int64  `json:"id"`
	Description  string `json:"description"`
	Cost         string `json:"cost"`
	CurrencyCode string `json:"currency_code"`
	Date         string `json:"date"`
}

// Expenses lists the most recent expenses.
func (c *Client) Expenses(ctx context.Context, token string, limit int) ([]Expense, error) {
	var resp struct {
		Expenses []Expense `json:"expenses"`
	}
	endpoint := fmt.Sprintf("get_expenses?limit=%d", limit)
	if err := c.get(ctx, token, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Expenses, nil
}

// CreateExpense submits a converted expense and returns the created expense
// id. The payer fronts the full cost; owed shares follow the split.
func (c *Client) CreateExpense(ctx context.Context, token string, e model.ConvertedExpense, categoryID int64) (int64, error) {
	req := createExpenseRequest{
		Cost:         e.Cost.StringFixed(2),
		Description:  e.Description,
		CurrencyCode: e.Currency,
	}
	if e.GroupID != 0 {
		req.GroupID = &e.GroupID
	}
	if categoryID != 0 {
		req.CategoryID = &categoryID
	}
	for _, s := range e.Shares {
		u := expenseUser{UserID: s.ContactID, PaidShare: "0.00", OwedShare: s.Owed.StringFixed(2)}
		if s.ContactID == e.PayerID {
			u.PaidShare = e.Cost.StringFixed(2)
		}
		req.Users = append(req.Users, u)
	}

	var resp struct {
		Expenses []struct {
			ID int64 `json:"id"`
		} `json:"expenses"`
		Errors map[string]json.RawMessage `json:"errors"`
	}
	if err := c.post(ctx, token, "create_expense", req, &resp); err != nil {
		return 0, err
	}
	// The ledger reports validation failures inside a 200 body.
	if len(resp.Errors) > 0 {
		return 0, &APIError{Status: http.StatusOK, Message: flattenErrors(resp.Errors)}
	}
	if len(resp.Expenses) == 0 {
		return 0, &APIError{Status: http.StatusOK, Message: "no expense returned"}
	}
	return resp.Expenses[0].ID, nil
}

type createExpenseRequest struct {
	Cost         string        `json:"cost"`
	Description  string        `json:"description"`
	CurrencyCode string        `json:"currency_code"`
	CategoryID   *int64        `json:"category_id,omitempty"`
	GroupID      *int64        `json:"group_id,omitempty"`
	Users        []expenseUser `json:"users"`
}

type expenseUser struct {
	UserID    int64  `json:"user_id"`
	PaidShare string `json:"paid_share"`
	OwedShare string `json:"owed_share"`
}

type userPayload struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u userPayload) contact() model.Contact {
	return model.Contact{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

type categoryPayload struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Subcategories []categoryPayload `json:"subcategories"`
}

func (c *Client) get(ctx context.Context, token, endpoint string, out interface{}) error {
	return c.do(ctx, http.MethodGet, token, endpoint, nil, out)
}

func (c *Client) post(ctx context.Context, token, endpoint string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, token, endpoint, encoded, out)
}

func (c *Client) do(ctx context.Context, method, token, endpoint string, body []byte, out interface{}) error {
	if token == "" {
		return &AuthError{Message: "no access token; authenticate first"}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+"/"+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &AuthError{Message: fmt.Sprintf("token rejected with status %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: snippet(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "unparsable response body"}
	}
	return nil
}

func flattenErrors(errs map[string]json.RawMessage) string {
	parts := make([]string, 0, len(errs))
	for k, v := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", k, string(v)))
	}
	return strings.Join(parts, "; ")
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "empty response body"
	}
	return s
}
