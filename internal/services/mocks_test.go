package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"marketplace/sellerhub/internal/cache"
	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/storage"
	"marketplace/sellerhub/internal/verification"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func newTestCache(t *testing.T, rdb *redis.Client) *cache.JSONCache {
	return cache.NewJSONCache(rdb, "test", time.Minute)
}

// memSellerService is an in-memory ISellerService with the same update
// filters as the Mongo implementation.
type memSellerService struct {
	mu       sync.Mutex
	sellers  map[string]*models.Seller
	applyErr error
}

func newMemSellerService(sellers ...*models.Seller) *memSellerService {
	m := &memSellerService{sellers: map[string]*models.Seller{}}
	for _, s := range sellers {
		m.sellers[s.ID] = s
	}
	return m
}

func (m *memSellerService) get(id string) *models.Seller {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.sellers[id]
	return &cp
}

func (m *memSellerService) Register(ctx context.Context, email, password string) (*models.Seller, error) {
	panic("not used")
}

func (m *memSellerService) Authenticate(ctx context.Context, email, password string) (*models.Seller, error) {
	panic("not used")
}

func (m *memSellerService) FindByID(ctx context.Context, sellerID string) (*models.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sellers[sellerID]
	if !ok {
		return nil, ErrSellerNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSellerService) UpdateSection(ctx context.Context, sellerID, section string, payload []byte) (*SectionUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sellers[sellerID]
	if !ok {
		return nil, ErrSellerNotFound
	}
	if s.Status == models.SellerStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	set, _, reset, err := sectionSet(s, section, payload)
	if err != nil {
		return nil, err
	}
	switch section {
	case models.SectionBusiness:
		var in models.BusinessInfo
		_ = json.Unmarshal(payload, &in)
		s.Business.BusinessName = in.BusinessName
		s.Business.GSTIN = verification.GSTSubject(in.GSTIN).GSTIN
	case models.SectionBank:
		var in models.BankInfo
		_ = json.Unmarshal(payload, &in)
		sub := verification.BankSubject(in.AccountNumber, in.IFSCCode)
		s.Bank.AccountNumber, s.Bank.IFSCCode = sub.AccountNumber, sub.IFSCCode
		s.Bank.BankName = in.BankName
		if name, ok := set["bank.bank_account_name"].(string); ok {
			s.Bank.BankAccountName = name
		}
	case models.SectionLocation:
		var in models.Location
		_ = json.Unmarshal(payload, &in)
		s.Location = &in
	case models.SectionStore:
		_ = json.Unmarshal(payload, &s.Store)
	case models.SectionBasic:
		_ = json.Unmarshal(payload, &s.Basic)
	}
	for _, st := range reset {
		if st == verification.SubjectGST {
			s.Business.GstVerified = false
			s.Business.VerifiedGstDetails = nil
		} else {
			s.Bank.BankVerified = false
		}
	}
	cp := *s
	return &SectionUpdate{Seller: &cp, Reset: reset}, nil
}

func (m *memSellerService) SetLocation(ctx context.Context, sellerID string, loc models.Location) (*models.Seller, error) {
	payload, _ := json.Marshal(loc)
	res, err := m.UpdateSection(ctx, sellerID, models.SectionLocation, payload)
	if err != nil {
		return nil, err
	}
	return res.Seller, nil
}

func (m *memSellerService) SetDocument(ctx context.Context, sellerID, kind, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sellers[sellerID]
	if !ok {
		return ErrSellerNotFound
	}
	switch kind {
	case "gst_certificate":
		s.Documents.GstCertificate = objectKey
	case "cancelled_cheque":
		s.Documents.CancelledCheque = objectKey
	case "store_logo":
		s.Documents.StoreLogo = objectKey
	default:
		return &verification.ValidationError{Field: "kind", Message: "unsupported document kind"}
	}
	return nil
}

func (m *memSellerService) ApplyVerification(ctx context.Context, sellerID string, subject verification.Subject, patch verification.FormPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	s, ok := m.sellers[sellerID]
	if !ok {
		return ErrStaleVerification
	}
	if verification.SubjectOf(s, patch.SubjectType).Key() != subject.Key() {
		return ErrStaleVerification
	}
	verification.ApplyPatch(s, patch)
	return nil
}

func (m *memSellerService) SetCurrentStep(ctx context.Context, sellerID string, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sellers[sellerID]
	if !ok || s.Status != models.SellerStatusDraft {
		return ErrAlreadySubmitted
	}
	s.CurrentStep = step
	return nil
}

func (m *memSellerService) MarkSubmitted(ctx context.Context, sellerID, marketplaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sellers[sellerID]
	if !ok || s.Status != models.SellerStatusDraft {
		return ErrAlreadySubmitted
	}
	now := time.Now().UTC()
	s.Status = models.SellerStatusSubmitted
	s.MarketplaceID = marketplaceID
	s.SubmittedAt = &now
	return nil
}

// fakeProvider replays scripted task statuses; the last one repeats.
type fakeProvider struct {
	mu        sync.Mutex
	nextID    int
	createErr error
	script    []*verification.TaskStatus
	creates   int
	polls     int
	// onFetch runs before each status response, outside the lock
	onFetch func()
}

func (p *fakeProvider) CreateTask(ctx context.Context, subject verification.Subject) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.createErr != nil {
		return "", p.createErr
	}
	p.nextID++
	return fmt.Sprintf("req-%d", p.nextID), nil
}

func (p *fakeProvider) FetchStatus(ctx context.Context, subjectType verification.SubjectType, requestID string) (*verification.TaskStatus, error) {
	if p.onFetch != nil {
		p.onFetch()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.polls
	p.polls++
	if len(p.script) == 0 {
		return &verification.TaskStatus{Status: verification.StatusInProgress}, nil
	}
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	return p.script[idx], nil
}

func (p *fakeProvider) counts() (creates, polls int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates, p.polls
}

// recordingScheduler captures scheduled polls instead of enqueueing them.
type recordingScheduler struct {
	mu   sync.Mutex
	jobs []PollJob
	err  error
}

func (r *recordingScheduler) SchedulePoll(ctx context.Context, job PollJob, attempt int, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

type mockMarketplace struct {
	mock.Mock
}

func (m *mockMarketplace) Categories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *mockMarketplace) Cities(ctx context.Context, state string) ([]models.City, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.City), args.Error(1)
}

func (m *mockMarketplace) RegisterSeller(ctx context.Context, reg marketplace.Registration) (string, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Error(1)
}

func (m *mockMarketplace) Profile(ctx context.Context, marketplaceID string) (*models.SellerProfile, error) {
	args := m.Called(ctx, marketplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SellerProfile), args.Error(1)
}

func (m *mockMarketplace) UpdateProfile(ctx context.Context, marketplaceID string, update models.ProfileUpdate) (*models.SellerProfile, error) {
	args := m.Called(ctx, marketplaceID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SellerProfile), args.Error(1)
}

func (m *mockMarketplace) Wallet(ctx context.Context, marketplaceID string) (*models.Wallet, error) {
	args := m.Called(ctx, marketplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockMarketplace) WalletTransactions(ctx context.Context, marketplaceID string, opts marketplace.ListOptions) (*models.Page[models.WalletTransaction], error) {
	args := m.Called(ctx, marketplaceID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.WalletTransaction]), args.Error(1)
}

func (m *mockMarketplace) Tickets(ctx context.Context, marketplaceID string, opts marketplace.ListOptions) (*models.Page[models.Ticket], error) {
	args := m.Called(ctx, marketplaceID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Ticket]), args.Error(1)
}

func (m *mockMarketplace) CreateTicket(ctx context.Context, marketplaceID string, t models.NewTicket) (*models.Ticket, error) {
	args := m.Called(ctx, marketplaceID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *mockMarketplace) Orders(ctx context.Context, marketplaceID string, opts marketplace.ListOptions) (*models.Page[models.Order], error) {
	args := m.Called(ctx, marketplaceID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Order]), args.Error(1)
}

type mockPlaces struct {
	mock.Mock
}

func (m *mockPlaces) Autocomplete(ctx context.Context, input string) ([]models.PlacePrediction, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlacePrediction), args.Error(1)
}

func (m *mockPlaces) Geocode(ctx context.Context, placeID string) (*models.GeoPoint, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeoPoint), args.Error(1)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) PresignDocumentUpload(ctx context.Context, sellerID, kind, filename, contentType string) (*storage.DocumentUpload, error) {
	args := m.Called(ctx, sellerID, kind, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.DocumentUpload), args.Error(1)
}
