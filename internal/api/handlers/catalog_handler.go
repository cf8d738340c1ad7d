package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/sellerhub/internal/services"
)

// CatalogHandler serves marketplace reference data and place lookups.
type CatalogHandler struct {
	catalog   services.ICatalogService
	locations services.ILocationService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog services.ICatalogService, locations services.ILocationService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, locations: locations}
}

// Categories handles GET /v1/catalog/categories
func (h *CatalogHandler) Categories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// Cities handles GET /v1/catalog/cities?state=
func (h *CatalogHandler) Cities(c *gin.Context) {
	cities, err := h.catalog.Cities(c.Request.Context(), c.Query("state"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

// SearchPlaces handles GET /v1/places/autocomplete?q=
func (h *CatalogHandler) SearchPlaces(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing search query parameter 'q'"})
		return
	}
	preds, err := h.locations.SearchLocations(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preds)
}

// ResolvePlace handles GET /v1/places/geocode?place_id=
func (h *CatalogHandler) ResolvePlace(c *gin.Context) {
	placeID := c.Query("place_id")
	if placeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'place_id'"})
		return
	}
	loc, err := h.locations.Resolve(c.Request.Context(), placeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}
