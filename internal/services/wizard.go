package services

import (
	"errors"
	"fmt"
	"strings"

	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/validation"
)

// Wizard step numbers.
const (
	StepBasic        = 1
	StepBusiness     = 2
	StepStore        = 3
	StepBankLocation = 4
	StepCount        = StepBankLocation
)

var (
	// ErrUnknownStep is returned for step numbers outside 1..StepCount.
	ErrUnknownStep = errors.New("unknown registration step")
	// ErrStepLocked is returned when advancing a step the seller has not reached.
	ErrStepLocked = errors.New("registration step not reached yet")
)

// StepResult reports whether a wizard step is complete.
type StepResult struct {
	Step   int                    `json:"step"`
	Name   string                 `json:"name"`
	Valid  bool                   `json:"valid"`
	Errors []validation.FieldError `json:"errors,omitempty"`
}

// StepValidator checks one wizard step against the saved form.
type StepValidator func(v *validation.Validator, s *models.Seller) []validation.FieldError

type wizardStep struct {
	name     string
	validate StepValidator
}

// Wizard is the explicit registry of step validators.
type Wizard struct {
	v     *validation.Validator
	steps map[int]wizardStep
}

// NewWizard builds the four-step onboarding wizard.
func NewWizard(v *validation.Validator) *Wizard {
	return &Wizard{
		v: v,
		steps: map[int]wizardStep{
			StepBasic:        {name: "basic_info", validate: validateBasicStep},
			StepBusiness:     {name: "business_info", validate: validateBusinessStep},
			StepStore:        {name: "store_details", validate: validateStoreStep},
			StepBankLocation: {name: "bank_and_location", validate: validateBankLocationStep},
		},
	}
}

// Validate runs the validator registered for step.
func (w *Wizard) Validate(step int, s *models.Seller) (*StepResult, error) {
	ws, ok := w.steps[step]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	errs := ws.validate(w.v, s)
	return &StepResult{Step: step, Name: ws.name, Valid: len(errs) == 0, Errors: errs}, nil
}

// ValidateAll runs every step in order.
func (w *Wizard) ValidateAll(s *models.Seller) []*StepResult {
	out := make([]*StepResult, 0, StepCount)
	for step := 1; step <= StepCount; step++ {
		res, _ := w.Validate(step, s)
		out = append(out, res)
	}
	return out
}

func structErrors(v *validation.Validator, prefix string, st interface{}) []validation.FieldError {
	err := v.Struct(prefix, st)
	if err == nil {
		return nil
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return []validation.FieldError{{Field: prefix, Tag: "invalid", Message: err.Error()}}
}

func validateBasicStep(v *validation.Validator, s *models.Seller) []validation.FieldError {
	return structErrors(v, models.SectionBasic, s.Basic)
}

func validateBusinessStep(v *validation.Validator, s *models.Seller) []validation.FieldError {
	errs := structErrors(v, models.SectionBusiness, s.Business)
	if len(errs) == 0 && !s.Business.GstVerified {
		errs = append(errs, validation.FieldError{
			Field: "business.gst_verified", Tag: "verified", Message: "GSTIN must be verified",
		})
	}
	return errs
}

func validateStoreStep(v *validation.Validator, s *models.Seller) []validation.FieldError {
	return structErrors(v, models.SectionStore, s.Store)
}

func validateBankLocationStep(v *validation.Validator, s *models.Seller) []validation.FieldError {
	errs := structErrors(v, models.SectionBank, s.Bank)
	if len(errs) == 0 {
		if !s.Bank.BankVerified {
			errs = append(errs, validation.FieldError{
				Field: "bank.bank_verified", Tag: "verified", Message: "bank account must be verified",
			})
		}
		if strings.TrimSpace(s.Bank.BankAccountName) == "" {
			errs = append(errs, validation.FieldError{
				Field: "bank.bank_account_name", Tag: "required", Message: "bank.bank_account_name is required",
			})
		}
	}
	if s.Location == nil {
		errs = append(errs, validation.FieldError{
			Field: "location", Tag: "required", Message: "location is required",
		})
	} else {
		errs = append(errs, structErrors(v, models.SectionLocation, s.Location)...)
	}
	return errs
}
