package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/presence"
)

// HTTPClient implements StatusClient using the cafe HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used by subscription streams.
func (c *HTTPClient) WithLogger(l *slog.Logger) *HTTPClient {
	if l != nil {
		c.logger = l
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// StatusView is the status row as the server renders it, with the
// opening-hours hint alongside.
type StatusView struct {
	model.ShopStatus
	WithinHours bool   `json:"within_hours"`
	Hours       string `json:"hours"`
}

// MenuItemRequest holds fields for a new menu item.
type MenuItemRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	BestSeller  bool    `json:"best_seller,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Actor       string  `json:"actor,omitempty"`
}

// MenuItemPatch holds optional fields for updating a menu item.
// Nil pointer fields mean "don't change".
type MenuItemPatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	BestSeller  *bool    `json:"best_seller,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Actor       string   `json:"actor,omitempty"`
}

// PhotoRequest holds fields for a new gallery photo.
type PhotoRequest struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption,omitempty"`
	Actor    string `json:"actor,omitempty"`
}

// HeroRequest holds the hero banner content.
type HeroRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Actor    string `json:"actor,omitempty"`
}

// WatchersResponse is the response from Watchers.
type WatchersResponse struct {
	Count    int              `json:"count"`
	Watchers []presence.Entry `json:"watchers"`
}

// --- Status ---

func statusPath(id int64) string {
	if id == 0 {
		return "/v1/status"
	}
	return "/v1/status?id=" + strconv.FormatInt(id, 10)
}

// Read returns the status row. A zero id selects the server's configured row.
func (c *HTTPClient) Read(ctx context.Context, id int64) (*model.ShopStatus, error) {
	v, err := c.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return &v.ShopStatus, nil
}

// Update sets is_open on an existing row.
func (c *HTTPClient) Update(ctx context.Context, id int64, isOpen bool) error {
	_, err := c.SetStatus(ctx, id, isOpen, "")
	return err
}

// Status returns the status row together with the opening-hours hint.
func (c *HTTPClient) Status(ctx context.Context, id int64) (*StatusView, error) {
	var v StatusView
	if err := c.doJSON(ctx, http.MethodGet, statusPath(id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetStatus writes is_open and returns the updated row.
func (c *HTTPClient) SetStatus(ctx context.Context, id int64, isOpen bool, actor string) (*StatusView, error) {
	body := map[string]any{"is_open": isOpen}
	if actor != "" {
		body["actor"] = actor
	}
	var v StatusView
	if err := c.doJSON(ctx, http.MethodPut, statusPath(id), body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// StatusEvents returns recent status changes, newest first.
func (c *HTTPClient) StatusEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	path := "/v1/status/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Menu ---

func (c *HTTPClient) ListMenu(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	path := "/v1/menu"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Items []*model.MenuItem `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *HTTPClient) GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error) {
	var item model.MenuItem
	if err := c.doJSON(ctx, http.MethodGet, menuPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) CreateMenuItem(ctx context.Context, req *MenuItemRequest) (*model.MenuItem, error) {
	var item model.MenuItem
	if err := c.doJSON(ctx, http.MethodPost, "/v1/menu", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) UpdateMenuItem(ctx context.Context, id int64, patch *MenuItemPatch) (*model.MenuItem, error) {
	var item model.MenuItem
	if err := c.doJSON(ctx, http.MethodPatch, menuPath(id), patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) DeleteMenuItem(ctx context.Context, id int64, actor string) error {
	return c.doJSON(ctx, http.MethodDelete, withActor(menuPath(id), actor), nil, nil)
}

func (c *HTTPClient) Categories(ctx context.Context) ([]string, error) {
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/menu/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func menuPath(id int64) string { return "/v1/menu/" + strconv.FormatInt(id, 10) }

func withActor(path, actor string) string {
	if actor == "" {
		return path
	}
	return path + "?actor=" + url.QueryEscape(actor)
}

// --- Gallery and hero ---

func (c *HTTPClient) Photos(ctx context.Context) ([]*model.Photo, error) {
	var resp struct {
		Photos []*model.Photo `json:"photos"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/gallery", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Photos, nil
}

func (c *HTTPClient) AddPhoto(ctx context.Context, req *PhotoRequest) (*model.Photo, error) {
	var photo model.Photo
	if err := c.doJSON(ctx, http.MethodPost, "/v1/gallery", req, &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (c *HTTPClient) DeletePhoto(ctx context.Context, id int64, actor string) error {
	return c.doJSON(ctx, http.MethodDelete, withActor("/v1/gallery/"+strconv.FormatInt(id, 10), actor), nil, nil)
}

func (c *HTTPClient) Hero(ctx context.Context) (*model.Hero, error) {
	var hero model.Hero
	if err := c.doJSON(ctx, http.MethodGet, "/v1/hero", nil, &hero); err != nil {
		return nil, err
	}
	return &hero, nil
}

func (c *HTTPClient) SetHero(ctx context.Context, req *HeroRequest) (*model.Hero, error) {
	var hero model.Hero
	if err := c.doJSON(ctx, http.MethodPut, "/v1/hero", req, &hero); err != nil {
		return nil, err
	}
	return &hero, nil
}

// --- Server ---

// Watchers lists live change-feed connections. transport may be "" for all.
func (c *HTTPClient) Watchers(ctx context.Context, transport string) (*WatchersResponse, error) {
	path := "/v1/watchers"
	if transport != "" {
		path += "?transport=" + url.QueryEscape(transport)
	}
	var resp WatchersResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// readAPIError turns a >= 400 response into an *APIError.
func readAPIError(resp *http.Response) error {
	respBody, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
