package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject_Validate(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		field   string
	}{
		{"valid gstin", GSTSubject("27AAAAA0000A1Z5"), ""},
		{"lowercase gstin normalized", GSTSubject(" 27aaaaa0000a1z5 "), ""},
		{"empty gstin", GSTSubject(""), "gstin"},
		{"short gstin", GSTSubject("27AAAAA0000"), "gstin"},
		{"gstin missing Z", GSTSubject("27AAAAA0000A1X5"), "gstin"},
		{"valid bank", BankSubject("123456789012", "HDFC0001234"), ""},
		{"short account", BankSubject("12345", "HDFC0001234"), "account_number"},
		{"alpha account", BankSubject("12345678A", "HDFC0001234"), "account_number"},
		{"bad ifsc fifth char", BankSubject("123456789012", "HDFC1001234"), "ifsc_code"},
		{"unknown type", Subject{Type: "pan"}, "subject_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.subject.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestSubject_Key(t *testing.T) {
	assert.Equal(t, "gst:27AAAAA0000A1Z5", GSTSubject("27aaaaa0000a1z5").Key())
	assert.Equal(t, "bank:123456789012:HDFC0001234", BankSubject("123456789012", "hdfc0001234").Key())
	assert.NotEqual(t, GSTSubject("27AAAAA0000A1Z5").Key(), GSTSubject("29AAAAA0000A1Z5").Key())
}

func TestParseSubjectType(t *testing.T) {
	st, err := ParseSubjectType("bank")
	require.NoError(t, err)
	assert.Equal(t, SubjectBank, st)

	_, err = ParseSubjectType("pan")
	assert.Error(t, err)
}
