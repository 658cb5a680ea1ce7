package domain

import (
	"fmt"
	"strings"
	"time"
)

// MessageFieldsRequired is the fixed client-facing message for any missing field.
const MessageFieldsRequired = "All fields are required"

// MessageInvalidEmail is the client-facing message for a malformed email address.
const MessageInvalidEmail = "Please enter a valid email address"

// Inquiry is a single contact-form submission.
// It is created once per request and never mutated afterwards.
type Inquiry struct {
	Name    string
	Email   string
	Subject string
	Message string

	// VerificationToken is the optional bot-verification token sent by the browser.
	VerificationToken string

	// SubmittedAt is assigned by the server when the inquiry is accepted for processing.
	SubmittedAt time.Time
}

// NewInquiry builds an Inquiry, trimming surrounding whitespace from the text fields.
func NewInquiry(name, email, subject, message, token string, submittedAt time.Time) *Inquiry {
	return &Inquiry{
		Name:              strings.TrimSpace(name),
		Email:             strings.TrimSpace(email),
		Subject:           strings.TrimSpace(subject),
		Message:           strings.TrimSpace(message),
		VerificationToken: strings.TrimSpace(token),
		SubmittedAt:       submittedAt.UTC(),
	}
}

// Validate checks that every required field is present.
// The error never names the missing field.
func (i *Inquiry) Validate() error {
	if i.Name == "" || i.Email == "" || i.Subject == "" || i.Message == "" {
		return NewValidationError("", MessageFieldsRequired)
	}

	return nil
}

// SubmittedAtISO returns the submission time as an ISO-8601 string.
func (i *Inquiry) SubmittedAtISO() string {
	return i.SubmittedAt.Format(time.RFC3339)
}

// IssueTitle is the summary used when the inquiry is filed as a ticket.
func (i *Inquiry) IssueTitle() string {
	return fmt.Sprintf("Contact Form: %s - from %s", i.Subject, i.Name)
}

// IssueBody is the ticket description embedding every field and the timestamp.
func (i *Inquiry) IssueBody() string {
	var b strings.Builder

	b.WriteString("*Contact form submission*\n\n")
	fmt.Fprintf(&b, "*Name:* %s\n", i.Name)
	fmt.Fprintf(&b, "*Email:* %s\n", i.Email)
	fmt.Fprintf(&b, "*Subject:* %s\n", i.Subject)
	fmt.Fprintf(&b, "*Submitted:* %s\n\n", i.SubmittedAtISO())
	b.WriteString("*Message:*\n")
	b.WriteString(i.Message)

	return b.String()
}

// Row returns the spreadsheet row: timestamp, name, email, subject, message.
func (i *Inquiry) Row() []any {
	return []any{i.SubmittedAtISO(), i.Name, i.Email, i.Subject, i.Message}
}

// Verification is the outcome of a single bot-verification call.
type Verification struct {
	Success bool

	// Score is the confidence in [0,1]; nil when the provider does not report one.
	Score *float64

	Action     string
	Hostname   string
	ErrorCodes []string
}

// Passes reports whether the verification clears the given threshold.
// A successful result without a score passes.
func (v *Verification) Passes(minScore float64) bool {
	if v == nil || !v.Success {
		return false
	}

	if v.Score == nil {
		return true
	}

	return *v.Score >= minScore
}
