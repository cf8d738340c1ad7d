package verification

import (
	"regexp"
	"strings"
)

var (
	gstinPattern         = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)
	ifscPattern          = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountNumberPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
)

// ValidGSTIN reports whether s is a well-formed 15-character GSTIN.
func ValidGSTIN(s string) bool { return gstinPattern.MatchString(s) }

// ValidIFSC reports whether s is a well-formed 11-character IFSC.
func ValidIFSC(s string) bool { return ifscPattern.MatchString(s) }

// ValidAccountNumber reports whether s is 9 to 18 digits.
func ValidAccountNumber(s string) bool { return accountNumberPattern.MatchString(s) }

// Subject is the identifying input of a verification.
type Subject struct {
	Type          SubjectType `json:"type"`
	GSTIN         string      `json:"gstin,omitempty"`
	AccountNumber string      `json:"account_number,omitempty"`
	IFSCCode      string      `json:"ifsc_code,omitempty"`
}

// GSTSubject builds a normalized GST subject.
func GSTSubject(gstin string) Subject {
	return Subject{Type: SubjectGST, GSTIN: strings.ToUpper(strings.TrimSpace(gstin))}
}

// BankSubject builds a normalized bank subject.
func BankSubject(accountNumber, ifsc string) Subject {
	return Subject{
		Type:          SubjectBank,
		AccountNumber: strings.TrimSpace(accountNumber),
		IFSCCode:      strings.ToUpper(strings.TrimSpace(ifsc)),
	}
}

// Validate checks the subject's format.
func (s Subject) Validate() error {
	switch s.Type {
	case SubjectGST:
		if s.GSTIN == "" {
			return &ValidationError{Field: "gstin", Message: "is required"}
		}
		if !ValidGSTIN(s.GSTIN) {
			return &ValidationError{Field: "gstin", Message: "must be a 15-character GSTIN"}
		}
	case SubjectBank:
		if !ValidAccountNumber(s.AccountNumber) {
			return &ValidationError{Field: "account_number", Message: "must be 9 to 18 digits"}
		}
		if !ValidIFSC(s.IFSCCode) {
			return &ValidationError{Field: "ifsc_code", Message: "must be 4 letters, 0, then 6 letters or digits"}
		}
	default:
		return &ValidationError{Field: "subject_type", Message: "unsupported subject type"}
	}
	return nil
}

// Key identifies the subject value. Two subjects with the same key refer to
// the same identifying input.
func (s Subject) Key() string {
	switch s.Type {
	case SubjectGST:
		return "gst:" + s.GSTIN
	case SubjectBank:
		return "bank:" + s.AccountNumber + ":" + s.IFSCCode
	}
	return string(s.Type)
}
