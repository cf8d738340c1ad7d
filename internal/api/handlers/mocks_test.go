package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/services"
	"marketplace/sellerhub/internal/storage"
	"marketplace/sellerhub/internal/verification"
)

// MockSellerService implements services.ISellerService.
type MockSellerService struct {
	mock.Mock
}

func (m *MockSellerService) Register(ctx context.Context, email, password string) (*models.Seller, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockSellerService) Authenticate(ctx context.Context, email, password string) (*models.Seller, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockSellerService) FindByID(ctx context.Context, sellerID string) (*models.Seller, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockSellerService) UpdateSection(ctx context.Context, sellerID, section string, payload []byte) (*services.SectionUpdate, error) {
	args := m.Called(ctx, sellerID, section, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SectionUpdate), args.Error(1)
}

func (m *MockSellerService) SetLocation(ctx context.Context, sellerID string, loc models.Location) (*models.Seller, error) {
	args := m.Called(ctx, sellerID, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockSellerService) SetDocument(ctx context.Context, sellerID, kind, objectKey string) error {
	return m.Called(ctx, sellerID, kind, objectKey).Error(0)
}

func (m *MockSellerService) ApplyVerification(ctx context.Context, sellerID string, subject verification.Subject, patch verification.FormPatch) error {
	return m.Called(ctx, sellerID, subject, patch).Error(0)
}

func (m *MockSellerService) SetCurrentStep(ctx context.Context, sellerID string, step int) error {
	return m.Called(ctx, sellerID, step).Error(0)
}

func (m *MockSellerService) MarkSubmitted(ctx context.Context, sellerID, marketplaceID string) error {
	return m.Called(ctx, sellerID, marketplaceID).Error(0)
}

// MockRegistrationService implements services.IRegistrationService.
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Draft(ctx context.Context, sellerID string) (*services.RegistrationView, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RegistrationView), args.Error(1)
}

func (m *MockRegistrationService) UpdateSection(ctx context.Context, sellerID, section string, payload []byte) (*models.Seller, error) {
	args := m.Called(ctx, sellerID, section, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockRegistrationService) ValidateStep(ctx context.Context, sellerID string, step int) (*services.StepResult, error) {
	args := m.Called(ctx, sellerID, step)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StepResult), args.Error(1)
}

func (m *MockRegistrationService) Advance(ctx context.Context, sellerID string, step int) (*services.AdvanceResult, error) {
	args := m.Called(ctx, sellerID, step)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AdvanceResult), args.Error(1)
}

func (m *MockRegistrationService) Submit(ctx context.Context, sellerID string) (*models.Seller, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seller), args.Error(1)
}

func (m *MockRegistrationService) DocumentUpload(ctx context.Context, sellerID, kind, filename, contentType string) (*storage.DocumentUpload, error) {
	args := m.Called(ctx, sellerID, kind, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.DocumentUpload), args.Error(1)
}

// MockVerificationService implements services.IVerificationService.
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Start(ctx context.Context, sellerID string, subjectType verification.SubjectType) (*services.VerificationView, error) {
	args := m.Called(ctx, sellerID, subjectType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VerificationView), args.Error(1)
}

func (m *MockVerificationService) Status(ctx context.Context, sellerID string, subjectType verification.SubjectType) (*services.VerificationView, error) {
	args := m.Called(ctx, sellerID, subjectType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VerificationView), args.Error(1)
}

func (m *MockVerificationService) InputChanged(ctx context.Context, sellerID string, subjectTypes ...verification.SubjectType) error {
	return m.Called(ctx, sellerID, subjectTypes).Error(0)
}

func (m *MockVerificationService) HandlePoll(ctx context.Context, job services.PollJob) (*services.StepOutcome, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StepOutcome), args.Error(1)
}

func (m *MockVerificationService) FailPoll(ctx context.Context, job services.PollJob, cause error) error {
	return m.Called(ctx, job, cause).Error(0)
}

func (m *MockVerificationService) Shutdown() {}

// MockCatalogService implements services.ICatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCatalogService) Cities(ctx context.Context, state string) ([]models.City, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.City), args.Error(1)
}

// MockLocationService implements services.ILocationService.
type MockLocationService struct {
	mock.Mock
}

func (m *MockLocationService) SearchLocations(ctx context.Context, query string) ([]models.PlacePrediction, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlacePrediction), args.Error(1)
}

func (m *MockLocationService) Resolve(ctx context.Context, placeID string) (*models.Location, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

// MockAccountService implements services.IAccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Profile(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SellerProfile), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, sellerID string, update models.ProfileUpdate) (*models.SellerProfile, error) {
	args := m.Called(ctx, sellerID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SellerProfile), args.Error(1)
}

func (m *MockAccountService) Wallet(ctx context.Context, sellerID string) (*models.Wallet, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockAccountService) WalletTransactions(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.WalletTransaction], error) {
	args := m.Called(ctx, sellerID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.WalletTransaction]), args.Error(1)
}

func (m *MockAccountService) Tickets(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.Ticket], error) {
	args := m.Called(ctx, sellerID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Ticket]), args.Error(1)
}

func (m *MockAccountService) CreateTicket(ctx context.Context, sellerID string, t models.NewTicket) (*models.Ticket, error) {
	args := m.Called(ctx, sellerID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockAccountService) Orders(ctx context.Context, sellerID string, opts marketplace.ListOptions) (*models.Page[models.Order], error) {
	args := m.Called(ctx, sellerID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Order]), args.Error(1)
}
