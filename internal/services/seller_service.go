package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/auth"
	"marketplace/sellerhub/internal/db"
	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/verification"
)

var (
	// ErrEmailExists is returned when registering an email that is already taken.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSellerNotFound is returned when no seller matches the id.
	ErrSellerNotFound = errors.New("seller not found")
	// ErrUnknownSection is returned for sections outside the durable allow-list.
	ErrUnknownSection = errors.New("unknown registration section")
	// ErrAlreadySubmitted is returned when editing a submitted registration.
	ErrAlreadySubmitted = errors.New("registration already submitted")
	// ErrStaleVerification is returned when a verification result no longer
	// matches the seller's current input.
	ErrStaleVerification = errors.New("verification result is stale")
)

// SectionUpdate is the result of saving one registration section.
type SectionUpdate struct {
	Seller *models.Seller
	// Reset lists the verifications invalidated because their identifying
	// input changed.
	Reset []verification.SubjectType
}

// ISellerService persists sellers and their registration forms.
type ISellerService interface {
	Register(ctx context.Context, email, password string) (*models.Seller, error)
	Authenticate(ctx context.Context, email, password string) (*models.Seller, error)
	FindByID(ctx context.Context, sellerID string) (*models.Seller, error)
	UpdateSection(ctx context.Context, sellerID, section string, payload []byte) (*SectionUpdate, error)
	SetLocation(ctx context.Context, sellerID string, loc models.Location) (*models.Seller, error)
	SetDocument(ctx context.Context, sellerID, kind, objectKey string) error
	ApplyVerification(ctx context.Context, sellerID string, subject verification.Subject, patch verification.FormPatch) error
	SetCurrentStep(ctx context.Context, sellerID string, step int) error
	MarkSubmitted(ctx context.Context, sellerID, marketplaceID string) error
}

const sellersCollection = "sellers"

// DocumentKinds lists the accepted onboarding documents.
var DocumentKinds = map[string]string{
	"gst_certificate":  "documents.gst_certificate",
	"cancelled_cheque": "documents.cancelled_cheque",
	"store_logo":       "documents.store_logo",
}

type sellerService struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewSellerService creates a new SellerService.
func NewSellerService(db *mongo.Database, logger *zap.Logger) ISellerService {
	return &sellerService{db: db, logger: logger}
}

// EnsureIndexes creates the unique email index on the sellers collection.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(sellersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_1"),
	})
	if err != nil {
		return fmt.Errorf("failed to create sellers email index: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a draft seller with a hashed password.
func (s *sellerService) Register(ctx context.Context, email, password string) (*models.Seller, error) {
	email = normalizeEmail(email)
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	collection := s.db.Collection(sellersCollection)
	now := time.Now().UTC()
	var seller *models.Seller

	operation := func() error {
		seller = &models.Seller{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			Status:       models.SellerStatusDraft,
			CurrentStep:  1,
			Basic:        models.BasicInfo{Email: email},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, insertErr := collection.InsertOne(ctx, seller)
		if insertErr != nil && strings.Contains(insertErr.Error(), "email_1") {
			// not retryable: a fresh id does not help
			return fmt.Errorf("%w: %v", ErrEmailExists, insertErr)
		}
		return insertErr
	}

	if err := db.Try(ctx, operation); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error inserting seller %s: %w", email, err)
	}

	s.logger.Info("seller registered", zap.String("seller_id", seller.ID))
	return seller, nil
}

// Authenticate checks the credentials and returns the seller.
func (s *sellerService) Authenticate(ctx context.Context, email, password string) (*models.Seller, error) {
	var seller models.Seller
	err := s.db.Collection(sellersCollection).FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&seller)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding seller by email: %w", err)
	}
	if !auth.CheckPasswordHash(password, seller.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &seller, nil
}

// FindByID loads a seller.
func (s *sellerService) FindByID(ctx context.Context, sellerID string) (*models.Seller, error) {
	var seller models.Seller
	err := s.db.Collection(sellersCollection).FindOne(ctx, bson.M{"_id": sellerID}).Decode(&seller)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("error finding seller %s: %w", sellerID, err)
	}
	return &seller, nil
}

// sectionSet decodes a section payload into the $set/$unset documents for
// its user-editable fields. Verification-owned fields are never taken from
// the payload.
func sectionSet(current *models.Seller, section string, payload []byte) (bson.M, bson.M, []verification.SubjectType, error) {
	set := bson.M{}
	unset := bson.M{}
	var reset []verification.SubjectType

	decode := func(v interface{}) error {
		if err := json.Unmarshal(payload, v); err != nil {
			return &verification.ValidationError{Field: section, Message: "malformed section payload"}
		}
		return nil
	}

	switch section {
	case models.SectionBasic:
		var in models.BasicInfo
		if err := decode(&in); err != nil {
			return nil, nil, nil, err
		}
		in.Name = strings.TrimSpace(in.Name)
		in.Email = normalizeEmail(in.Email)
		in.Mobile = strings.TrimSpace(in.Mobile)
		set["basic"] = in
	case models.SectionBusiness:
		var in models.BusinessInfo
		if err := decode(&in); err != nil {
			return nil, nil, nil, err
		}
		gstin := verification.GSTSubject(in.GSTIN).GSTIN
		set["business.business_name"] = strings.TrimSpace(in.BusinessName)
		set["business.gstin"] = gstin
		if gstin != current.Business.GSTIN {
			set["business.gst_verified"] = false
			unset["business.verified_gst_details"] = ""
			reset = append(reset, verification.SubjectGST)
		}
	case models.SectionStore:
		var in models.StoreInfo
		if err := decode(&in); err != nil {
			return nil, nil, nil, err
		}
		in.StoreName = strings.TrimSpace(in.StoreName)
		if in.CategoryIDs == nil {
			in.CategoryIDs = []string{}
		}
		set["store"] = in
	case models.SectionBank:
		var in models.BankInfo
		if err := decode(&in); err != nil {
			return nil, nil, nil, err
		}
		subject := verification.BankSubject(in.AccountNumber, in.IFSCCode)
		set["bank.account_number"] = subject.AccountNumber
		set["bank.ifsc_code"] = subject.IFSCCode
		set["bank.bank_name"] = strings.TrimSpace(in.BankName)
		changed := subject.AccountNumber != current.Bank.AccountNumber || subject.IFSCCode != current.Bank.IFSCCode
		// the account holder name of a verified account comes from the bank
		if changed || !current.Bank.BankVerified {
			set["bank.bank_account_name"] = strings.TrimSpace(in.BankAccountName)
		}
		if changed {
			set["bank.bank_verified"] = false
			reset = append(reset, verification.SubjectBank)
		}
	case models.SectionLocation:
		var in models.Location
		if err := decode(&in); err != nil {
			return nil, nil, nil, err
		}
		in.FormattedAddress = strings.TrimSpace(in.FormattedAddress)
		set["location"] = in
	default:
		return nil, nil, nil, ErrUnknownSection
	}
	return set, unset, reset, nil
}

// UpdateSection saves one allow-listed section of the registration form.
// Changing a GSTIN or bank account clears the matching verified badge.
func (s *sellerService) UpdateSection(ctx context.Context, sellerID, section string, payload []byte) (*SectionUpdate, error) {
	current, err := s.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.SellerStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}

	set, unset, reset, err := sectionSet(current, section, payload)
	if err != nil {
		return nil, err
	}
	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	updated, err := s.findOneAndUpdate(ctx, bson.M{"_id": sellerID, "status": models.SellerStatusDraft}, update)
	if err != nil {
		if errors.Is(err, ErrSellerNotFound) {
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}
	if len(reset) > 0 {
		s.logger.Info("verification input changed",
			zap.String("seller_id", sellerID), zap.String("section", section))
	}
	return &SectionUpdate{Seller: updated, Reset: reset}, nil
}

func (s *sellerService) findOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (*models.Seller, error) {
	var seller models.Seller
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.db.Collection(sellersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&seller)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("error updating seller: %w", err)
	}
	return &seller, nil
}

// SetLocation stores a resolved pickup location.
func (s *sellerService) SetLocation(ctx context.Context, sellerID string, loc models.Location) (*models.Seller, error) {
	payload, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode location: %w", err)
	}
	res, err := s.UpdateSection(ctx, sellerID, models.SectionLocation, payload)
	if err != nil {
		return nil, err
	}
	return res.Seller, nil
}

// SetDocument records the object key of an uploaded document.
func (s *sellerService) SetDocument(ctx context.Context, sellerID, kind, objectKey string) error {
	field, ok := DocumentKinds[kind]
	if !ok {
		return &verification.ValidationError{Field: "kind", Message: "unsupported document kind"}
	}
	result, err := s.db.Collection(sellersCollection).UpdateOne(ctx,
		bson.M{"_id": sellerID},
		bson.M{"$set": bson.M{field: objectKey, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("error saving document for seller %s: %w", sellerID, err)
	}
	if result.MatchedCount == 0 {
		return ErrSellerNotFound
	}
	return nil
}

// ApplyVerification writes a verification patch. The update only matches
// while the form still holds the verified subject, so a result for an
// edited GSTIN or bank account is dropped with ErrStaleVerification.
func (s *sellerService) ApplyVerification(ctx context.Context, sellerID string, subject verification.Subject, patch verification.FormPatch) error {
	filter := bson.M{"_id": sellerID}
	set := bson.M{"updated_at": time.Now().UTC()}

	switch patch.SubjectType {
	case verification.SubjectGST:
		filter["business.gstin"] = subject.GSTIN
		set["business.gst_verified"] = true
		set["business.verified_gst_details"] = patch.VerifiedGstDetails
	case verification.SubjectBank:
		filter["bank.account_number"] = subject.AccountNumber
		filter["bank.ifsc_code"] = subject.IFSCCode
		set["bank.bank_verified"] = true
		if patch.BankAccountName != nil {
			set["bank.bank_account_name"] = *patch.BankAccountName
		}
		if patch.BankName != nil {
			set["bank.bank_name"] = *patch.BankName
		}
	default:
		return &verification.ValidationError{Field: "subject_type", Message: "unsupported subject type"}
	}

	result, err := s.db.Collection(sellersCollection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error applying %s verification for seller %s: %w", patch.SubjectType, sellerID, err)
	}
	if result.MatchedCount == 0 {
		return ErrStaleVerification
	}
	return nil
}

// SetCurrentStep records the wizard position.
func (s *sellerService) SetCurrentStep(ctx context.Context, sellerID string, step int) error {
	result, err := s.db.Collection(sellersCollection).UpdateOne(ctx,
		bson.M{"_id": sellerID, "status": models.SellerStatusDraft},
		bson.M{"$set": bson.M{"current_step": step, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("error updating step for seller %s: %w", sellerID, err)
	}
	if result.MatchedCount == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

// MarkSubmitted flags the registration as sent to the marketplace.
func (s *sellerService) MarkSubmitted(ctx context.Context, sellerID, marketplaceID string) error {
	now := time.Now().UTC()
	result, err := s.db.Collection(sellersCollection).UpdateOne(ctx,
		bson.M{"_id": sellerID, "status": models.SellerStatusDraft},
		bson.M{"$set": bson.M{
			"status":         models.SellerStatusSubmitted,
			"marketplace_id": marketplaceID,
			"submitted_at":   now,
			"updated_at":     now,
		}},
	)
	if err != nil {
		return fmt.Errorf("error submitting seller %s: %w", sellerID, err)
	}
	if result.MatchedCount == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}
