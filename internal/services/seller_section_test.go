package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/verification"
)

func verifiedBankSeller() *models.Seller {
	s := draftSeller()
	s.Bank.BankName = "HDFC BANK"
	s.Bank.BankAccountName = "ASHA RAO"
	s.Bank.BankVerified = true
	return s
}

func TestSectionSet_VerifiedBankNameKept(t *testing.T) {
	set, _, reset, err := sectionSet(verifiedBankSeller(), models.SectionBank,
		[]byte(`{"account_number":"123456789012","ifsc_code":"HDFC0001234","bank_name":"HDFC","bank_account_name":"Someone Else"}`))
	require.NoError(t, err)
	assert.Empty(t, reset)
	assert.NotContains(t, set, "bank.bank_account_name")
	assert.NotContains(t, set, "bank.bank_verified")
	assert.Equal(t, "HDFC", set["bank.bank_name"])
}

func TestSectionSet_BankNameEditableWhenSubjectChanges(t *testing.T) {
	set, _, reset, err := sectionSet(verifiedBankSeller(), models.SectionBank,
		[]byte(`{"account_number":"999988887777","ifsc_code":"HDFC0001234","bank_account_name":"Asha R"}`))
	require.NoError(t, err)
	assert.Equal(t, []verification.SubjectType{verification.SubjectBank}, reset)
	assert.Equal(t, "Asha R", set["bank.bank_account_name"])
	assert.Equal(t, false, set["bank.bank_verified"])
}

func TestSectionSet_UnverifiedBankNameEditable(t *testing.T) {
	set, _, reset, err := sectionSet(draftSeller(), models.SectionBank,
		[]byte(`{"account_number":"123456789012","ifsc_code":"HDFC0001234","bank_account_name":"Asha Rao"}`))
	require.NoError(t, err)
	assert.Empty(t, reset)
	assert.Equal(t, "Asha Rao", set["bank.bank_account_name"])
}

func TestUpdateSection_VerifiedBankNameSurvivesResave(t *testing.T) {
	sellers := newMemSellerService(verifiedBankSeller())

	res, err := sellers.UpdateSection(context.Background(), "seller-1", models.SectionBank,
		[]byte(`{"account_number":"123456789012","ifsc_code":"hdfc0001234","bank_name":"HDFC BANK","bank_account_name":"Someone Else"}`))
	require.NoError(t, err)
	assert.True(t, res.Seller.Bank.BankVerified)
	assert.Equal(t, "ASHA RAO", res.Seller.Bank.BankAccountName)
}
