package dto

// Upper bounds on contact form fields. The body size limit sits above these.
const (
	MaxNameLength    = 200
	MaxEmailLength   = 320
	MaxSubjectLength = 200
	MaxMessageLength = 10000
	MaxTokenLength   = 4096
)

// ContactRequest is the JSON body of POST /api/contact.
// Presence of the four text fields is checked by the domain after trimming,
// so the tags here only bound their length.
type ContactRequest struct {
	Name           string `json:"name"           validate:"max=200"`
	Email          string `json:"email"          validate:"max=320"`
	Subject        string `json:"subject"        validate:"max=200"`
	Message        string `json:"message"        validate:"max=10000"`
	RecaptchaToken string `json:"recaptchaToken" validate:"max=4096"`
}
