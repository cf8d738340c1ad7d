package models

import (
	"time"
)

// SellerStatus tracks where a seller is in onboarding.
type SellerStatus string

const (
	SellerStatusDraft     SellerStatus = "draft"
	SellerStatusSubmitted SellerStatus = "submitted"
)

// Section names of the registration form. Only these are persisted.
const (
	SectionBasic     = "basic"
	SectionBusiness  = "business"
	SectionStore     = "store"
	SectionBank      = "bank"
	SectionLocation  = "location"
	SectionDocuments = "documents"
)

// BasicInfo is collected on the first wizard step.
type BasicInfo struct {
	Name   string `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Email  string `bson:"email" json:"email" validate:"required,email"`
	Mobile string `bson:"mobile" json:"mobile" validate:"required,mobile"`
}

// BusinessAddress is the principal place of business reported by GST verification.
type BusinessAddress struct {
	BuildingName string `bson:"building_name,omitempty" json:"building_name,omitempty"`
	Street       string `bson:"street,omitempty" json:"street,omitempty"`
	Locality     string `bson:"locality,omitempty" json:"locality,omitempty"`
	City         string `bson:"city,omitempty" json:"city,omitempty"`
	State        string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode      string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

// VerifiedGstDetails holds the normalized fields of a completed GST verification.
type VerifiedGstDetails struct {
	LegalName              string          `bson:"legal_name" json:"legalName"`
	TradeName              string          `bson:"trade_name" json:"tradeName"`
	GstinStatus            string          `bson:"gstin_status" json:"gstinStatus"`
	ConstitutionOfBusiness string          `bson:"constitution_of_business" json:"constitutionOfBusiness"`
	BusinessAddress        BusinessAddress `bson:"business_address" json:"businessAddress"`
	VerifiedAt             time.Time       `bson:"verified_at" json:"verifiedAt"`
}

// BusinessInfo is collected on the second wizard step.
type BusinessInfo struct {
	BusinessName       string              `bson:"business_name" json:"business_name" validate:"required,min=2,max=150"`
	GSTIN              string              `bson:"gstin" json:"gstin" validate:"required,gstin"`
	GstVerified        bool                `bson:"gst_verified" json:"gst_verified"`
	VerifiedGstDetails *VerifiedGstDetails `bson:"verified_gst_details,omitempty" json:"verifiedGstDetails,omitempty"`
}

// StoreInfo is collected on the third wizard step.
type StoreInfo struct {
	StoreName   string   `bson:"store_name" json:"store_name" validate:"required,min=2,max=100"`
	CategoryIDs []string `bson:"category_ids" json:"category_ids" validate:"required,min=1,dive,required"`
	CityID      string   `bson:"city_id" json:"city_id" validate:"required"`
	Description string   `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
}

// BankInfo is collected on the fourth wizard step.
type BankInfo struct {
	AccountNumber   string `bson:"account_number" json:"account_number" validate:"required,numeric,min=9,max=18"`
	IFSCCode        string `bson:"ifsc_code" json:"ifsc_code" validate:"required,ifsc"`
	BankName        string `bson:"bank_name" json:"bank_name"`
	BankAccountName string `bson:"bank_account_name" json:"bank_account_name"`
	BankVerified    bool   `bson:"bank_verified" json:"bank_verified"`
}

// Location is the pickup location picked through the places provider.
type Location struct {
	PlaceID          string  `bson:"place_id,omitempty" json:"place_id,omitempty"`
	Lat              float64 `bson:"lat" json:"lat" validate:"latitude"`
	Lng              float64 `bson:"lng" json:"lng" validate:"longitude"`
	FormattedAddress string  `bson:"formatted_address" json:"formatted_address" validate:"required"`
}

// Documents holds S3 object keys of uploaded onboarding documents.
type Documents struct {
	GstCertificate  string `bson:"gst_certificate,omitempty" json:"gst_certificate,omitempty"`
	CancelledCheque string `bson:"cancelled_cheque,omitempty" json:"cancelled_cheque,omitempty"`
	StoreLogo       string `bson:"store_logo,omitempty" json:"store_logo,omitempty"`
}

// Seller is a marketplace seller together with their registration form.
// Stored in the `sellers` collection.
type Seller struct {
	ID            string       `bson:"_id" json:"id"`
	Email         string       `bson:"email" json:"email"`
	PasswordHash  string       `bson:"password" json:"-"`
	Status        SellerStatus `bson:"status" json:"status"`
	CurrentStep   int          `bson:"current_step" json:"current_step"`
	MarketplaceID string       `bson:"marketplace_id,omitempty" json:"marketplace_id,omitempty"`
	Basic         BasicInfo    `bson:"basic" json:"basic"`
	Business      BusinessInfo `bson:"business" json:"business"`
	Store         StoreInfo    `bson:"store" json:"store"`
	Bank          BankInfo     `bson:"bank" json:"bank"`
	Location      *Location    `bson:"location,omitempty" json:"location,omitempty"`
	Documents     Documents    `bson:"documents" json:"documents"`
	CreatedAt     time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `bson:"updated_at" json:"updated_at"`
	SubmittedAt   *time.Time   `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
}
