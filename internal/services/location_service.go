package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"marketplace/sellerhub/internal/cache"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/places"
)

// ILocationService defines the interface for pickup location lookups.
type ILocationService interface {
	SearchLocations(ctx context.Context, query string) ([]models.PlacePrediction, error)
	Resolve(ctx context.Context, placeID string) (*models.Location, error)
}

// locationService implements ILocationService on the places provider.
type locationService struct {
	places places.IClient
	cache  *cache.JSONCache
	logger *zap.Logger
}

// NewLocationService creates a new LocationService. Geocode results are
// cached; autocomplete results are not.
func NewLocationService(client places.IClient, geocodeCache *cache.JSONCache, logger *zap.Logger) ILocationService {
	return &locationService{places: client, cache: geocodeCache, logger: logger}
}

// SearchLocations returns place predictions for a partial address.
func (s *locationService) SearchLocations(ctx context.Context, query string) ([]models.PlacePrediction, error) {
	query = strings.TrimSpace(query)
	if len(query) < 3 {
		return []models.PlacePrediction{}, nil
	}
	return s.places.Autocomplete(ctx, query)
}

// Resolve geocodes a place id into a pickup location.
func (s *locationService) Resolve(ctx context.Context, placeID string) (*models.Location, error) {
	pt, err := cache.GetOrLoad(ctx, s.cache, "geocode:"+placeID, s.logger, func(ctx context.Context) (*models.GeoPoint, error) {
		return s.places.Geocode(ctx, placeID)
	})
	if err != nil {
		return nil, err
	}
	return &models.Location{
		PlaceID:          pt.PlaceID,
		Lat:              pt.Lat,
		Lng:              pt.Lng,
		FormattedAddress: pt.FormattedAddress,
	}, nil
}
