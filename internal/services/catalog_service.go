package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"marketplace/sellerhub/internal/cache"
	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/models"
)

// ICatalogService serves the marketplace reference data used by the wizard.
type ICatalogService interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Cities(ctx context.Context, state string) ([]models.City, error)
}

type catalogService struct {
	client marketplace.IClient
	cache  *cache.JSONCache
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService backed by the marketplace API
// and a Redis cache.
func NewCatalogService(client marketplace.IClient, c *cache.JSONCache, logger *zap.Logger) ICatalogService {
	return &catalogService{client: client, cache: c, logger: logger}
}

func (s *catalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return cache.GetOrLoad(ctx, s.cache, "categories", s.logger, s.client.Categories)
}

func (s *catalogService) Cities(ctx context.Context, state string) ([]models.City, error) {
	state = strings.TrimSpace(state)
	key := "cities"
	if state != "" {
		key += ":" + strings.ToLower(state)
	}
	return cache.GetOrLoad(ctx, s.cache, key, s.logger, func(ctx context.Context) ([]models.City, error) {
		return s.client.Cities(ctx, state)
	})
}
