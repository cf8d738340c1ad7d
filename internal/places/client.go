// Package places resolves pickup locations through a Google-style places API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/httpclient"
	"marketplace/sellerhub/internal/models"
)

// ErrNoResults is returned when the provider finds nothing for a query.
var ErrNoResults = errors.New("no places found")

// IClient looks up places.
type IClient interface {
	Autocomplete(ctx context.Context, input string) ([]models.PlacePrediction, error)
	Geocode(ctx context.Context, placeID string) (*models.GeoPoint, error)
}

type client struct {
	baseURL string
	apiKey  string
	country string
	http    *retryablehttp.Client
	logger  *zap.Logger
}

// NewClient creates a places client restricted to country (ISO code, may be empty).
func NewClient(baseURL, apiKey, country string, timeout time.Duration, logger *zap.Logger) IClient {
	return &client{
		baseURL: baseURL,
		apiKey:  apiKey,
		country: country,
		http:    httpclient.New(httpclient.Options{Timeout: timeout, RetryMax: 2, Logger: logger}),
		logger:  logger,
	}
}

type autocompleteResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Predictions  []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		PlaceID          string `json:"place_id"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

func (c *client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build places request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("places %s failed: %w", path, err)
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return fmt.Errorf("places %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode places %s response: %w", path, err)
	}
	return nil
}

func statusErr(status, message string) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return ErrNoResults
	}
	return fmt.Errorf("places provider returned %s: %s", status, message)
}

// Autocomplete returns predictions for a partial address.
func (c *client) Autocomplete(ctx context.Context, input string) ([]models.PlacePrediction, error) {
	q := url.Values{}
	q.Set("input", input)
	if c.country != "" {
		q.Set("components", "country:"+c.country)
	}
	var res autocompleteResponse
	if err := c.get(ctx, "/autocomplete/json", q, &res); err != nil {
		return nil, err
	}
	if err := statusErr(res.Status, res.ErrorMessage); err != nil {
		if errors.Is(err, ErrNoResults) {
			return []models.PlacePrediction{}, nil
		}
		c.logger.Warn("places autocomplete rejected", zap.String("status", res.Status))
		return nil, err
	}
	out := make([]models.PlacePrediction, 0, len(res.Predictions))
	for _, p := range res.Predictions {
		out = append(out, models.PlacePrediction{PlaceID: p.PlaceID, Description: p.Description})
	}
	return out, nil
}

// Geocode resolves a place id to coordinates and a formatted address.
func (c *client) Geocode(ctx context.Context, placeID string) (*models.GeoPoint, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "place_id,formatted_address,geometry")
	var res detailsResponse
	if err := c.get(ctx, "/details/json", q, &res); err != nil {
		return nil, err
	}
	if err := statusErr(res.Status, res.ErrorMessage); err != nil {
		return nil, err
	}
	return &models.GeoPoint{
		PlaceID:          placeID,
		Lat:              res.Result.Geometry.Location.Lat,
		Lng:              res.Result.Geometry.Location.Lng,
		FormattedAddress: res.Result.FormattedAddress,
	}, nil
}
