package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submitted = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func TestNewInquiry_TrimsFields(t *testing.T) {
	inq := NewInquiry("  Jane Doe ", " jane@example.com", "Consulting\n", "\tLet's talk ", " tok123 ",
		submitted.In(time.FixedZone("EST", -5*3600)))

	assert.Equal(t, "Jane Doe", inq.Name)
	assert.Equal(t, "jane@example.com", inq.Email)
	assert.Equal(t, "Consulting", inq.Subject)
	assert.Equal(t, "Let's talk", inq.Message)
	assert.Equal(t, "tok123", inq.VerificationToken)
	assert.Equal(t, time.UTC, inq.SubmittedAt.Location())
	assert.True(t, inq.SubmittedAt.Equal(submitted))
}

func TestInquiry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		inquiry *Inquiry
		wantErr bool
	}{
		{
			name:    "all fields present",
			inquiry: NewInquiry("Jane Doe", "jane@example.com", "Consulting", "Let's talk", "", submitted),
		},
		{
			name:    "token is optional",
			inquiry: NewInquiry("Jane Doe", "jane@example.com", "Consulting", "Let's talk", "tok", submitted),
		},
		{
			name:    "missing name",
			inquiry: NewInquiry("", "jane@example.com", "Consulting", "Let's talk", "", submitted),
			wantErr: true,
		},
		{
			name:    "missing email",
			inquiry: NewInquiry("Jane Doe", "", "Consulting", "Let's talk", "", submitted),
			wantErr: true,
		},
		{
			name:    "missing subject",
			inquiry: NewInquiry("Jane Doe", "jane@example.com", "", "Let's talk", "", submitted),
			wantErr: true,
		},
		{
			name:    "empty message",
			inquiry: NewInquiry("Jane Doe", "jane@example.com", "Consulting", "", "", submitted),
			wantErr: true,
		},
		{
			name:    "whitespace-only message",
			inquiry: NewInquiry("Jane Doe", "jane@example.com", "Consulting", "   ", "", submitted),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inquiry.Validate()

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Empty(t, validation.Field, "must not reveal which field is missing")
			assert.Equal(t, MessageFieldsRequired, validation.Message)
		})
	}
}

func TestInquiry_Formatting(t *testing.T) {
	inq := NewInquiry("Jane Doe", "jane@example.com", "Consulting", "Let's talk", "", submitted)

	assert.Equal(t, "2025-03-14T15:09:26Z", inq.SubmittedAtISO())
	assert.Equal(t, "Contact Form: Consulting - from Jane Doe", inq.IssueTitle())
	assert.Equal(t, []any{"2025-03-14T15:09:26Z", "Jane Doe", "jane@example.com", "Consulting", "Let's talk"}, inq.Row())

	body := inq.IssueBody()
	assert.Contains(t, body, "*Name:* Jane Doe")
	assert.Contains(t, body, "*Email:* jane@example.com")
	assert.Contains(t, body, "*Subject:* Consulting")
	assert.Contains(t, body, "*Submitted:* 2025-03-14T15:09:26Z")
	assert.Contains(t, body, "Let's talk")
}

func TestVerification_Passes(t *testing.T) {
	score := func(f float64) *float64 { return &f }

	tests := []struct {
		name     string
		v        *Verification
		minScore float64
		expected bool
	}{
		{"nil verification", nil, 0.5, false},
		{"unsuccessful", &Verification{Success: false, Score: score(0.9)}, 0.5, false},
		{"success without score", &Verification{Success: true}, 0.5, true},
		{"score above threshold", &Verification{Success: true, Score: score(0.9)}, 0.5, true},
		{"score equal to threshold", &Verification{Success: true, Score: score(0.5)}, 0.5, true},
		{"score below threshold", &Verification{Success: true, Score: score(0.3)}, 0.5, false},
		{"zero threshold accepts zero score", &Verification{Success: true, Score: score(0)}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.v.Passes(tt.minScore))
		})
	}
}
