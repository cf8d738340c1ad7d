// Package marketplace is the client for the marketplace REST API.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/httpclient"
	"marketplace/sellerhub/internal/models"
)

// ErrNotFound is returned when the marketplace reports a missing resource.
var ErrNotFound = errors.New("marketplace resource not found")

// APIError is a well-formed envelope with status 0.
type APIError struct {
	Path    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace %s: %s", e.Path, e.Message)
}

// Registration is the payload submitted once a seller completes the wizard.
type Registration struct {
	SellerID     string                     `json:"seller_id"`
	Name         string                     `json:"name"`
	Email        string                     `json:"email"`
	Mobile       string                     `json:"mobile"`
	BusinessName string                     `json:"business_name"`
	GSTIN        string                     `json:"gstin"`
	GstDetails   *models.VerifiedGstDetails `json:"gst_details,omitempty"`
	StoreName    string                     `json:"store_name"`
	CategoryIDs  []string                   `json:"category_ids"`
	CityID       string                     `json:"city_id"`
	Description  string                     `json:"description,omitempty"`
	Bank         BankAccount                `json:"bank"`
	Location     *models.Location           `json:"location,omitempty"`
	Documents    models.Documents           `json:"documents"`
}

// BankAccount is the settlement account of a Registration.
type BankAccount struct {
	AccountNumber   string `json:"account_number"`
	IFSCCode        string `json:"ifsc_code"`
	BankName        string `json:"bank_name"`
	BankAccountName string `json:"bank_account_name"`
}

// ListOptions paginates list calls.
type ListOptions struct {
	Page    int
	PerPage int
	Status  string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}

// IClient is the subset of the marketplace API sellerhub consumes.
type IClient interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Cities(ctx context.Context, state string) ([]models.City, error)
	RegisterSeller(ctx context.Context, reg Registration) (string, error)
	Profile(ctx context.Context, marketplaceID string) (*models.SellerProfile, error)
	UpdateProfile(ctx context.Context, marketplaceID string, update models.ProfileUpdate) (*models.SellerProfile, error)
	Wallet(ctx context.Context, marketplaceID string) (*models.Wallet, error)
	WalletTransactions(ctx context.Context, marketplaceID string, opts ListOptions) (*models.Page[models.WalletTransaction], error)
	Tickets(ctx context.Context, marketplaceID string, opts ListOptions) (*models.Page[models.Ticket], error)
	CreateTicket(ctx context.Context, marketplaceID string, t models.NewTicket) (*models.Ticket, error)
	Orders(ctx context.Context, marketplaceID string, opts ListOptions) (*models.Page[models.Order], error)
}

type client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	logger  *zap.Logger
}

// NewClient creates a marketplace API client. GET calls are retried on
// connection errors and 5xx responses; writes are attempted once.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) IClient {
	return &client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpclient.New(httpclient.Options{Timeout: timeout, RetryMax: 3, Logger: logger}),
		logger:  logger,
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		body = bytes.NewReader(jsonData)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace %s %s failed: %w", method, path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return ErrNotFound
	}
	raw, err := httpclient.ReadBody(resp)
	if err != nil {
		return fmt.Errorf("marketplace %s %s: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode marketplace envelope for %s: %w", path, err)
	}
	if env.Status != 1 {
		c.logger.Warn("marketplace call rejected", zap.String("path", path), zap.String("message", env.Message))
		return &APIError{Path: path, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode marketplace data for %s: %w", path, err)
	}
	return nil
}

func sellerPath(marketplaceID, suffix string) string {
	return "/sellers/" + url.PathEscape(marketplaceID) + suffix
}

func (c *client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) Cities(ctx context.Context, state string) ([]models.City, error) {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	var out []models.City
	if err := c.do(ctx, http.MethodGet, "/cities", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) RegisterSeller(ctx context.Context, reg Registration) (string, error) {
	var out struct {
		SellerID string `json:"seller_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/sellers/register", nil, reg, &out); err != nil {
		return "", err
	}
	if out.SellerID == "" {
		return "", fmt.Errorf("marketplace registration returned no seller_id")
	}
	return out.SellerID, nil
}

func (c *client) Profile(ctx context.Context, marketplaceID string) (*models.SellerProfile, error) {
	var out models.SellerProfile
	if err := c.do(ctx, http.MethodGet, sellerPath(marketplaceID, "/profile"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) UpdateProfile(ctx context.Context, marketplaceID string, update models.ProfileUpdate) (*models.SellerProfile, error) {
	var out models.SellerProfile
	if err := c.do(ctx, http.MethodPut, sellerPath(marketplaceID, "/profile"), nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Wallet(ctx context.Context, marketplaceID string) (*models.Wallet, error) {
	var out models.Wallet
	if err := c.do(ctx, http.MethodGet, sellerPath(marketplaceID, "/wallet"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) WalletTransactions(ctx context.Context, marketplaceID string, opts ListOptions) (*models.Page[models.WalletTransaction], error) {
	var out models.Page[models.WalletTransaction]
	if err := c.do(ctx, http.MethodGet, sellerPath(marketplaceID, "/wallet/transactions"), opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Tickets(ctx context.Context, marketplaceID string, opts ListOptions) (*models.Page[models.Ticket], error) {
	var out models.Page[models.Ticket]
	if err := c.do(ctx, http.MethodGet, sellerPath(marketplaceID, "/tickets"), opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) CreateTicket(ctx context.Context, marketplaceID string, t models.NewTicket) (*models.Ticket, error) {
	var out models.Ticket
	if err := c.do(ctx, http.MethodPost, sellerPath(marketplaceID, "/tickets"), nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Orders(ctx context.Context, marketplaceID string, opts ListOptions) (*models.Page[models.Order], error) {
	var out models.Page[models.Order]
	if err := c.do(ctx, http.MethodGet, sellerPath(marketplaceID, "/orders"), opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
