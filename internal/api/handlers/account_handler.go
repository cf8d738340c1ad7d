package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace/sellerhub/internal/api/middleware"
	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/services"
)

// AccountHandler serves the seller account once onboarding is done.
type AccountHandler struct {
	account services.IAccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(account services.IAccountService) *AccountHandler {
	return &AccountHandler{account: account}
}

func listOptions(c *gin.Context) marketplace.ListOptions {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return marketplace.ListOptions{Page: page, PerPage: perPage, Status: c.Query("status")}
}

// Profile handles GET /v1/account/profile
func (h *AccountHandler) Profile(c *gin.Context) {
	profile, err := h.account.Profile(c.Request.Context(), middleware.SellerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /v1/account/profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if !bindJSON(c, &update) {
		return
	}
	profile, err := h.account.UpdateProfile(c.Request.Context(), middleware.SellerID(c), update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Wallet handles GET /v1/account/wallet
func (h *AccountHandler) Wallet(c *gin.Context) {
	wallet, err := h.account.Wallet(c.Request.Context(), middleware.SellerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// WalletTransactions handles GET /v1/account/wallet/transactions
func (h *AccountHandler) WalletTransactions(c *gin.Context) {
	page, err := h.account.WalletTransactions(c.Request.Context(), middleware.SellerID(c), listOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Tickets handles GET /v1/account/tickets
func (h *AccountHandler) Tickets(c *gin.Context) {
	page, err := h.account.Tickets(c.Request.Context(), middleware.SellerID(c), listOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateTicket handles POST /v1/account/tickets
func (h *AccountHandler) CreateTicket(c *gin.Context) {
	var t models.NewTicket
	if !bindJSON(c, &t) {
		return
	}
	ticket, err := h.account.CreateTicket(c.Request.Context(), middleware.SellerID(c), t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// Orders handles GET /v1/account/orders
func (h *AccountHandler) Orders(c *gin.Context) {
	page, err := h.account.Orders(c.Request.Context(), middleware.SellerID(c), listOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
