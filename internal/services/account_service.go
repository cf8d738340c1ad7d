package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/validation"
)

// ErrNotOnboarded is returned for account calls before the registration has
// been accepted by the marketplace.
var ErrNotOnboarded = errors.New("seller registration not yet submitted")

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// IAccountService exposes the post-onboarding seller account.
type IAccountService interface {
	Profile(ctx context.Context, sellerID string) (*models.SellerProfile, error)
	UpdateProfile(ctx context.Context, sellerID string, update models.ProfileUpdate) (*models.SellerProfile, error)
	Wallet(ctx context.Context, sellerID string) (*models.Wallet, error)
	WalletTransactions(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.WalletTransaction], error)
	Tickets(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.Ticket], error)
	CreateTicket(ctx context.Context, sellerID string, t models.NewTicket) (*models.Ticket, error)
	Orders(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.Order], error)
}

type accountService struct {
	sellers   ISellerService
	client    marketplace.IClient
	validator *validation.Validator
	logger    *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(sellers ISellerService, client marketplace.IClient, v *validation.Validator, logger *zap.Logger) IAccountService {
	return &accountService{sellers: sellers, client: client, validator: v, logger: logger}
}

// marketplaceID maps a seller to their marketplace account.
func (s *accountService) marketplaceID(ctx context.Context, sellerID string) (string, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return "", err
	}
	if seller.Status != models.SellerStatusSubmitted || seller.MarketplaceID == "" {
		return "", ErrNotOnboarded
	}
	return seller.MarketplaceID, nil
}

// NormalizeListOptions clamps pagination to sane bounds.
func NormalizeListOptions(opts marketplace.ListOptions) marketplace.ListOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 {
		opts.PerPage = defaultPerPage
	}
	if opts.PerPage > maxPerPage {
		opts.PerPage = maxPerPage
	}
	return opts
}

func (s *accountService) Profile(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	id, err := s.marketplaceID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.client.Profile(ctx, id)
}

func (s *accountService) UpdateProfile(ctx context.Context, sellerID string, update models.ProfileUpdate) (*models.SellerProfile, error) {
	if err := s.validator.Struct("profile", update); err != nil {
		return nil, err
	}
	id, err := s.marketplaceID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	profile, err := s.client.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("seller profile updated", zap.String("seller_id", sellerID))
	return profile, nil
}

func (s *accountService) Wallet(ctx context.Context, sellerID string) (*models.Wallet, error) {
	id, err := s.marketplaceID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.client.Wallet(ctx, id)
}

func (s *accountService) WalletTransactions(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.WalletTransaction], error) {
	id, err := s.marketplaceID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.client.WalletTransactions(ctx, id, NormalizeListOptions(opts))
}

func (s *accountService) Tickets(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.Ticket], error) {
	id, err := s.marketplaceID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.client.Tickets(ctx, id, NormalizeListOptions(opts))
}

func (s *accountService) CreateTicket(ctx context.Context, sellerID string, t models.NewTicket) (*models.Ticket, error) {
	if err := s.validator.Struct("ticket", t); err != nil {
		return nil, err
	}
	id, err := s.marketplaceID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.client.CreateTicket(ctx, id, t)
	if err != nil {
		return nil, err
	}
	s.logger.Info("support ticket raised", zap.String("seller_id", sellerID), zap.String("ticket_id", ticket.ID))
	return ticket, nil
}

func (s *accountService) Orders(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.Order], error) {
	id, err := s.marketplaceID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.client.Orders(ctx, id, NormalizeListOptions(opts))
}
