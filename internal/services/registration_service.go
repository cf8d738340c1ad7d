package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/storage"
	"marketplace/sellerhub/internal/validation"
	"marketplace/sellerhub/internal/verification"
)

// IncompleteError lists the wizard steps blocking submission.
type IncompleteError struct {
	Steps []*StepResult
}

func (e *IncompleteError) Error() string {
	names := make([]string, 0, len(e.Steps))
	for _, s := range e.Steps {
		names = append(names, s.Name)
	}
	return "registration incomplete: " + strings.Join(names, ", ")
}

// RegistrationView is the saved form together with derived wizard state.
type RegistrationView struct {
	Seller        *models.Seller                                  `json:"seller"`
	Steps         []*StepResult                                   `json:"steps"`
	Verifications map[verification.SubjectType]*VerificationView `json:"verifications"`
}

// AdvanceResult is the outcome of moving the wizard forward.
type AdvanceResult struct {
	*StepResult
	CurrentStep int `json:"current_step"`
}

// IRegistrationService drives the onboarding wizard.
type IRegistrationService interface {
	Draft(ctx context.Context, sellerID string) (*RegistrationView, error)
	UpdateSection(ctx context.Context, sellerID, section string, payload []byte) (*models.Seller, error)
	ValidateStep(ctx context.Context, sellerID string, step int) (*StepResult, error)
	Advance(ctx context.Context, sellerID string, step int) (*AdvanceResult, error)
	Submit(ctx context.Context, sellerID string) (*models.Seller, error)
	DocumentUpload(ctx context.Context, sellerID, kind, filename, contentType string) (*storage.DocumentUpload, error)
}

type registrationService struct {
	sellers      ISellerService
	verification IVerificationService
	locations    ILocationService
	market       marketplace.IClient
	storage      storage.IS3Storage
	wizard       *Wizard
	logger       *zap.Logger
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(
	sellers ISellerService,
	verificationSvc IVerificationService,
	locations ILocationService,
	market marketplace.IClient,
	store storage.IS3Storage,
	wizard *Wizard,
	logger *zap.Logger,
) IRegistrationService {
	return &registrationService{
		sellers:      sellers,
		verification: verificationSvc,
		locations:    locations,
		market:       market,
		storage:      store,
		wizard:       wizard,
		logger:       logger,
	}
}

// Draft returns the seller's form, per-step validity and verification state.
func (s *registrationService) Draft(ctx context.Context, sellerID string) (*RegistrationView, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	view := &RegistrationView{
		Seller:        seller,
		Steps:         s.wizard.ValidateAll(seller),
		Verifications: map[verification.SubjectType]*VerificationView{},
	}
	for _, st := range []verification.SubjectType{verification.SubjectGST, verification.SubjectBank} {
		v, err := s.verification.Status(ctx, sellerID, st)
		if err != nil {
			return nil, err
		}
		view.Verifications[st] = v
	}
	return view, nil
}

// UpdateSection saves a section and resets verifications whose input changed.
// A location payload carrying only a place_id is resolved through the places
// provider first.
func (s *registrationService) UpdateSection(ctx context.Context, sellerID, section string, payload []byte) (*models.Seller, error) {
	if section == models.SectionLocation {
		var in models.Location
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, &verification.ValidationError{Field: section, Message: "malformed section payload"}
		}
		if in.PlaceID != "" && in.FormattedAddress == "" {
			loc, err := s.locations.Resolve(ctx, in.PlaceID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve place %s: %w", in.PlaceID, err)
			}
			return s.sellers.SetLocation(ctx, sellerID, *loc)
		}
	}

	res, err := s.sellers.UpdateSection(ctx, sellerID, section, payload)
	if err != nil {
		return nil, err
	}
	if len(res.Reset) > 0 {
		if err := s.verification.InputChanged(ctx, sellerID, res.Reset...); err != nil {
			s.logger.Warn("failed to reset verification state", zap.String("seller_id", sellerID), zap.Error(err))
		}
	}
	return res.Seller, nil
}

// ValidateStep runs the validator of one step against the saved form.
func (s *registrationService) ValidateStep(ctx context.Context, sellerID string, step int) (*StepResult, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.wizard.Validate(step, seller)
}

// Advance moves past step when it validates. Steps ahead of the current
// one cannot be advanced.
func (s *registrationService) Advance(ctx context.Context, sellerID string, step int) (*AdvanceResult, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status == models.SellerStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	res, err := s.wizard.Validate(step, seller)
	if err != nil {
		return nil, err
	}
	current := seller.CurrentStep
	if current < 1 {
		current = 1
	}
	if step > current {
		return nil, fmt.Errorf("%w: step %d, current step %d", ErrStepLocked, step, current)
	}
	if res.Valid && step == current && step < StepCount {
		if err := s.sellers.SetCurrentStep(ctx, sellerID, step+1); err != nil {
			return nil, err
		}
		current = step + 1
	}
	return &AdvanceResult{StepResult: res, CurrentStep: current}, nil
}

// Submit sends a fully valid registration to the marketplace.
func (s *registrationService) Submit(ctx context.Context, sellerID string) (*models.Seller, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status == models.SellerStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}

	var failing []*StepResult
	for _, r := range s.wizard.ValidateAll(seller) {
		if !r.Valid {
			failing = append(failing, r)
		}
	}
	if len(failing) > 0 {
		return nil, &IncompleteError{Steps: failing}
	}

	marketplaceID, err := s.market.RegisterSeller(ctx, registrationOf(seller))
	if err != nil {
		return nil, fmt.Errorf("failed to submit registration: %w", err)
	}
	if err := s.sellers.MarkSubmitted(ctx, sellerID, marketplaceID); err != nil {
		return nil, err
	}
	s.logger.Info("registration submitted",
		zap.String("seller_id", sellerID), zap.String("marketplace_id", marketplaceID))
	return s.sellers.FindByID(ctx, sellerID)
}

func registrationOf(seller *models.Seller) marketplace.Registration {
	return marketplace.Registration{
		SellerID:     seller.ID,
		Name:         seller.Basic.Name,
		Email:        seller.Basic.Email,
		Mobile:       seller.Basic.Mobile,
		BusinessName: seller.Business.BusinessName,
		GSTIN:        seller.Business.GSTIN,
		GstDetails:   seller.Business.VerifiedGstDetails,
		StoreName:    seller.Store.StoreName,
		CategoryIDs:  seller.Store.CategoryIDs,
		CityID:       seller.Store.CityID,
		Description:  seller.Store.Description,
		Bank: marketplace.BankAccount{
			AccountNumber:   seller.Bank.AccountNumber,
			IFSCCode:        seller.Bank.IFSCCode,
			BankName:        seller.Bank.BankName,
			BankAccountName: seller.Bank.BankAccountName,
		},
		Location:  seller.Location,
		Documents: seller.Documents,
	}
}

var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

// DocumentUpload issues a presigned upload URL and records the object key.
func (s *registrationService) DocumentUpload(ctx context.Context, sellerID, kind, filename, contentType string) (*storage.DocumentUpload, error) {
	if _, ok := DocumentKinds[kind]; !ok {
		return nil, &verification.ValidationError{Field: "kind", Message: "unsupported document kind"}
	}
	if !allowedDocumentTypes[contentType] {
		return nil, validation.FieldErrors{{Field: "content_type", Tag: "oneof", Message: "content_type must be a PDF or an image"}}
	}
	upload, err := s.storage.PresignDocumentUpload(ctx, sellerID, kind, filename, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.sellers.SetDocument(ctx, sellerID, kind, upload.ObjectKey); err != nil {
		return nil, err
	}
	return upload, nil
}
