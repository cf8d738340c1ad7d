package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace/sellerhub/internal/auth"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/services"
)

// SellerHandler handles seller sign-up and login.
type SellerHandler struct {
	sellers   services.ISellerService
	jwtSecret string
	jwtTTL    time.Duration
}

// NewSellerHandler creates a new SellerHandler.
func NewSellerHandler(sellers services.ISellerService, jwtSecret string, jwtTTL time.Duration) *SellerHandler {
	return &SellerHandler{sellers: sellers, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expires_in"`
	Seller    *models.Seller `json:"seller"`
}

func (h *SellerHandler) session(c *gin.Context, status int, seller *models.Seller) {
	token, err := auth.GenerateJWT(seller.ID, seller.Email, h.jwtSecret, h.jwtTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, sessionResponse{Token: token, ExpiresIn: int64(h.jwtTTL.Seconds()), Seller: seller})
}

// Register handles POST /v1/sellers/register
func (h *SellerHandler) Register(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}
	seller, err := h.sellers.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.session(c, http.StatusCreated, seller)
}

// Login handles POST /v1/sellers/login
func (h *SellerHandler) Login(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}
	seller, err := h.sellers.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.session(c, http.StatusOK, seller)
}
