package verification

import (
	"strings"
	"time"

	"marketplace/sellerhub/internal/models"
)

// FormPatch is the change a completed verification makes to the seller's
// registration form. Nil fields are left untouched.
type FormPatch struct {
	SubjectType        SubjectType
	VerifiedGstDetails *models.VerifiedGstDetails
	BankAccountName    *string
	BankName           *string
}

// Reduce turns a completed result into a FormPatch against the current form.
//
// Bank results always overwrite the account holder name but only fill the
// bank name when the seller left it blank.
func Reduce(subjectType SubjectType, result *Result, current *models.Seller, now time.Time) (FormPatch, error) {
	patch := FormPatch{SubjectType: subjectType}
	switch subjectType {
	case SubjectGST:
		if result == nil || result.GST == nil {
			return patch, &MalformedResponseError{Detail: "gst patch without gst result"}
		}
		g := result.GST
		patch.VerifiedGstDetails = &models.VerifiedGstDetails{
			LegalName:              g.LegalName,
			TradeName:              g.TradeName,
			GstinStatus:            g.GstinStatus,
			ConstitutionOfBusiness: g.ConstitutionOfBusiness,
			BusinessAddress: models.BusinessAddress{
				BuildingName: g.BusinessAddress.BuildingName,
				Street:       g.BusinessAddress.Street,
				Locality:     g.BusinessAddress.Locality,
				City:         g.BusinessAddress.City,
				State:        g.BusinessAddress.State,
				Pincode:      g.BusinessAddress.Pincode,
			},
			VerifiedAt: now.UTC(),
		}
	case SubjectBank:
		if result == nil || result.Bank == nil {
			return patch, &MalformedResponseError{Detail: "bank patch without bank result"}
		}
		name := result.Bank.AccountHolderName
		patch.BankAccountName = &name
		if current == nil || strings.TrimSpace(current.Bank.BankName) == "" {
			bankName := result.Bank.BankName
			patch.BankName = &bankName
		}
	default:
		return patch, &ValidationError{Field: "subject_type", Message: "unsupported subject type"}
	}
	return patch, nil
}

// ApplyPatch applies patch to seller in memory and marks the subject verified.
func ApplyPatch(seller *models.Seller, patch FormPatch) {
	switch patch.SubjectType {
	case SubjectGST:
		seller.Business.VerifiedGstDetails = patch.VerifiedGstDetails
		seller.Business.GstVerified = true
	case SubjectBank:
		if patch.BankAccountName != nil {
			seller.Bank.BankAccountName = *patch.BankAccountName
		}
		if patch.BankName != nil {
			seller.Bank.BankName = *patch.BankName
		}
		seller.Bank.BankVerified = true
	}
}

// SubjectOf extracts the identifying input for subjectType from the form.
func SubjectOf(seller *models.Seller, subjectType SubjectType) Subject {
	switch subjectType {
	case SubjectGST:
		return GSTSubject(seller.Business.GSTIN)
	case SubjectBank:
		return BankSubject(seller.Bank.AccountNumber, seller.Bank.IFSCCode)
	}
	return Subject{Type: subjectType}
}

// IsVerified reports whether the form already carries a verified badge for subjectType.
func IsVerified(seller *models.Seller, subjectType SubjectType) bool {
	switch subjectType {
	case SubjectGST:
		return seller.Business.GstVerified
	case SubjectBank:
		return seller.Bank.BankVerified
	}
	return false
}
