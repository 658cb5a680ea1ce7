package acl

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/brianfending/contact-service/internal/adapters/clients"
	"github.com/brianfending/contact-service/internal/domain"
	"github.com/brianfending/contact-service/internal/platform/logging"
)

const (
	recaptchaServiceName = "recaptcha"
	siteverifyPath       = "/recaptcha/api/siteverify"
)

// RecaptchaVerifierConfig contains configuration for the reCAPTCHA verifier.
type RecaptchaVerifierConfig struct {
	// Client is the HTTP client; its BaseURL points at https://www.google.com.
	Client *clients.Client

	// SecretKey is the server-side reCAPTCHA secret.
	SecretKey string

	Logger *slog.Logger
}

// RecaptchaVerifier implements ports.HumanVerifier with Google reCAPTCHA.
type RecaptchaVerifier struct {
	BaseAdapter
	secret string
	logger *slog.Logger
}

// NewRecaptchaVerifier creates a new verifier.
// Panics if Client is nil or SecretKey is empty.
func NewRecaptchaVerifier(cfg RecaptchaVerifierConfig) *RecaptchaVerifier {
	if cfg.Client == nil {
		panic("RecaptchaVerifier: Client is required")
	}

	if cfg.SecretKey == "" {
		panic("RecaptchaVerifier: SecretKey is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RecaptchaVerifier{
		BaseAdapter: NewBaseAdapter(cfg.Client, recaptchaServiceName),
		secret:      cfg.SecretKey,
		logger:      logger,
	}
}

// siteverifyResponse is the body returned by the siteverify endpoint.
type siteverifyResponse struct {
	Success     bool     `json:"success"`
	Score       *float64 `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Verify asks reCAPTCHA whether token came from a human.
// The result is returned as-is; the caller applies the score threshold.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) (*domain.Verification, error) {
	v.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", siteverifyPath))

	body, err := v.PostForm(ctx, siteverifyPath, url.Values{
		"secret":   {v.secret},
		"response": {token},
	}, "verify token")
	if err != nil {
		return nil, err
	}

	ext, err := DecodeResponse[siteverifyResponse](body)
	if err != nil {
		return nil, domain.NewUnavailableError(recaptchaServiceName, err.Error())
	}

	result := translateVerification(ext)

	v.logger.DebugContext(ctx, "token verified",
		slog.Bool("success", result.Success),
		slog.String("action", result.Action),
		slog.String("hostname", result.Hostname),
	)

	return result, nil
}

// translateVerification converts the siteverify body to a domain Verification.
func translateVerification(ext *siteverifyResponse) *domain.Verification {
	return &domain.Verification{
		Success:    ext.Success,
		Score:      ext.Score,
		Action:     ext.Action,
		Hostname:   ext.Hostname,
		ErrorCodes: ext.ErrorCodes,
	}
}
