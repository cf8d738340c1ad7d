package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a marketplace product category.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// City is a serviceable city.
type City struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// SellerProfile is the seller's public profile as held by the marketplace.
type SellerProfile struct {
	SellerID     string `json:"seller_id"`
	StoreName    string `json:"store_name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Mobile       string `json:"mobile"`
	Description  string `json:"description,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	StoreName   *string `json:"store_name,omitempty" validate:"omitempty,min=2,max=100"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,min=2,max=100"`
	Mobile      *string `json:"mobile,omitempty" validate:"omitempty,mobile"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// Wallet is the seller's settlement wallet.
type Wallet struct {
	Balance        decimal.Decimal `json:"balance"`
	PendingPayout  decimal.Decimal `json:"pending_payout"`
	Currency       string          `json:"currency"`
	LastSettlement *time.Time      `json:"last_settlement,omitempty"`
}

// WalletTransaction is one wallet ledger entry.
type WalletTransaction struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // credit | debit
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	OrderID     string          `json:"order_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Ticket is a seller support ticket.
type Ticket struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicket is the payload for raising a ticket.
type NewTicket struct {
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Body    string `json:"body" validate:"required,min=10,max=5000"`
	OrderID string `json:"order_id,omitempty"`
}

// Order is a seller order summary.
type Order struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	CreatedAt time.Time       `json:"created_at"`
}

// Page describes a paginated list response.
type Page[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// GeoPoint is a resolved place.
type GeoPoint struct {
	PlaceID          string  `json:"place_id,omitempty"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// PlacePrediction is one autocomplete suggestion.
type PlacePrediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}
