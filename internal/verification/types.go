package verification

import (
	"fmt"
	"time"
)

// SubjectType selects the verification flavour.
type SubjectType string

const (
	SubjectGST  SubjectType = "gst"
	SubjectBank SubjectType = "bank"
)

// ParseSubjectType maps a path/query value onto a SubjectType.
func ParseSubjectType(s string) (SubjectType, error) {
	switch SubjectType(s) {
	case SubjectGST, SubjectBank:
		return SubjectType(s), nil
	}
	return "", fmt.Errorf("unknown verification subject %q", s)
}

// Status is the lifecycle state of a verification poll.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusTimedOut   Status = "timed_out"
)

// Terminal reports whether no further polling happens from this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// Request is one user-triggered verification.
type Request struct {
	SubjectType SubjectType `json:"subject_type"`
	Subject     Subject     `json:"subject"`
	RequestID   string      `json:"request_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PollState is the mutable progress record of a Request. Only the Poller
// changes Status, AttemptCount and Result.
type PollState struct {
	RequestID    string      `json:"request_id"`
	SubjectType  SubjectType `json:"subject_type"`
	SubjectKey   string      `json:"subject_key"`
	AttemptCount int         `json:"attempt_count"`
	MaxAttempts  int         `json:"max_attempts"`
	Status       Status      `json:"status"`
	Result       *Result     `json:"result,omitempty"`
	Message      string      `json:"message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewPollState returns the pending state for a freshly created task.
func NewPollState(req Request, policy Policy) *PollState {
	return &PollState{
		RequestID:   req.RequestID,
		SubjectType: req.SubjectType,
		SubjectKey:  req.Subject.Key(),
		MaxAttempts: policy.MaxAttempts,
		Status:      StatusPending,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.CreatedAt,
	}
}

// Address is a normalized business address.
type Address struct {
	BuildingName string `json:"building_name,omitempty"`
	Street       string `json:"street,omitempty"`
	Locality     string `json:"locality,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Pincode      string `json:"pincode,omitempty"`
}

// GSTResult is the normalized result of a GSTIN verification.
type GSTResult struct {
	LegalName              string  `json:"legal_name"`
	TradeName              string  `json:"trade_name"`
	GstinStatus            string  `json:"gstin_status"`
	ConstitutionOfBusiness string  `json:"constitution_of_business"`
	BusinessAddress        Address `json:"business_address"`
}

// BankResult is the normalized result of a bank account verification.
type BankResult struct {
	AccountHolderName string `json:"account_holder_name"`
	BankName          string `json:"bank_name"`
	IFSCCode          string `json:"ifsc_code"`
	AccountExists     bool   `json:"account_exists"`
	Status            string `json:"status"`
}

// Result carries exactly one of the variants, matching the subject type.
type Result struct {
	GST  *GSTResult  `json:"gst,omitempty"`
	Bank *BankResult `json:"bank,omitempty"`
}
