package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// secretFields are attribute and struct field names whose values are never
// logged: downstream credentials from the config and the visitor's
// verification token.
var secretFields = []string{
	"password", "Password",
	"secret", "secret_key", "SecretKey",
	"api_token", "APIToken",
	"private_key", "PrivateKey",
	"token", "access_token", "AccessToken",
	"recaptchaToken", "recaptcha_token", "verification_token", "VerificationToken",
	"authorization", "Authorization",
}

var (
	// Service-account assertions and reCAPTCHA tokens are both JWT shaped.
	jwtPattern = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)

	// Google OAuth2 access tokens.
	googleTokenPattern = regexp.MustCompile(`^ya29\.[A-Za-z0-9_.-]+$`)

	// A PEM private key pasted anywhere into a value.
	pemKeyPattern = regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)

	// Authorization header values, e.g. the Jira basic auth.
	authHeaderPattern = regexp.MustCompile(`(?i)^(basic|bearer)\s+.+$`)
)

// RedactOptions returns the masq options used by every handler New builds.
func RedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(secretFields)+6)
	for _, name := range secretFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithRegex(jwtPattern),
		masq.WithRegex(googleTokenPattern),
		masq.WithRegex(pemKeyPattern),
		masq.WithRegex(authHeaderPattern),
	)
}

// Redactor returns a slog ReplaceAttr function applying RedactOptions plus extra.
func Redactor(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(), extra...)...)
}
