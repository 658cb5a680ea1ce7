// Package sheets appends inquiries to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/brianfending/contact-service/internal/adapters/clients/acl"
	"github.com/brianfending/contact-service/internal/domain"
)

const (
	// SinkName names the sink in logs, metrics and health checks.
	SinkName = "sheets"

	// DefaultTokenURL is Google's OAuth2 token endpoint.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	valueInputOption = "USER_ENTERED"
)

// ErrMissingCredentials is returned when the service account is incomplete.
var ErrMissingCredentials = errors.New("sheets: client email, private key and sheet id are required")

// Config contains configuration for the Sheets sink.
type Config struct {
	ClientEmail string

	// PrivateKey is the PEM service-account key. Literal "\n" sequences,
	// as found in single-line environment variables, are restored to newlines.
	PrivateKey string

	SheetID string

	// Range is the A1 range rows are appended to, e.g. "Sheet1!A:E".
	Range string

	// Endpoint overrides the API base URL.
	Endpoint string

	// TokenURL defaults to DefaultTokenURL.
	TokenURL string

	// Transport carries both token and API requests. Pass
	// clients.Client.RoundTripper() to share retry, breaker and telemetry.
	Transport http.RoundTripper

	// HealthTransport carries Check requests. Defaults to Transport. A
	// separate client keeps failing health checks out of the write path's
	// circuit breaker.
	HealthTransport http.RoundTripper

	Logger *slog.Logger
}

// Sink implements ports.InquirySink by appending one row per inquiry.
type Sink struct {
	svc     *gsheets.Service
	health  *gsheets.Service
	sheetID string
	rng     string
	logger  *slog.Logger
}

// NewSink authenticates as the service account and builds the API client.
// No request is made until the first Write or Check.
func NewSink(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" || cfg.SheetID == "" {
		return nil, ErrMissingCredentials
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	healthTransport := cfg.HealthTransport
	if healthTransport == nil {
		healthTransport = transport
	}

	jwtCfg := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(NormalizePrivateKey(cfg.PrivateKey)),
		Scopes:     []string{gsheets.SpreadsheetsScope},
		TokenURL:   tokenURL,
	}

	svc, err := newService(ctx, jwtCfg, transport, cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	health := svc
	if healthTransport != transport {
		if health, err = newService(ctx, jwtCfg, healthTransport, cfg.Endpoint); err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sink{
		svc:     svc,
		health:  health,
		sheetID: cfg.SheetID,
		rng:     cfg.Range,
		logger:  logger,
	}, nil
}

func newService(ctx context.Context, jwtCfg *jwt.Config, transport http.RoundTripper, endpoint string) (*gsheets.Service, error) {
	base := &http.Client{Transport: transport}
	authed := jwtCfg.Client(context.WithValue(ctx, oauth2.HTTPClient, base))

	opts := []option.ClientOption{option.WithHTTPClient(authed)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return svc, nil
}

// NormalizePrivateKey turns escaped "\n" sequences back into newlines.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Name returns the sink name. Implements ports.InquirySink and ports.HealthChecker.
func (s *Sink) Name() string {
	return SinkName
}

// Write appends the inquiry as a row. Any failure is a *domain.PersistenceError.
func (s *Sink) Write(ctx context.Context, inquiry *domain.Inquiry) error {
	values := &gsheets.ValueRange{Values: [][]any{inquiry.Row()}}

	resp, err := s.svc.Spreadsheets.Values.Append(s.sheetID, s.rng, values).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return domain.NewPersistenceError(SinkName, mapAPIError(err, "append row"))
	}

	if resp.Updates != nil {
		s.logger.InfoContext(ctx, "sheet row appended", slog.String("range", resp.Updates.UpdatedRange))
	}

	return nil
}

// Check confirms the spreadsheet is reachable with the configured account.
// Implements ports.HealthChecker.
func (s *Sink) Check(ctx context.Context) error {
	_, err := s.health.Spreadsheets.Get(s.sheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets health check: %w", mapAPIError(err, "get spreadsheet"))
	}

	return nil
}

// mapAPIError classifies API failures the same way acl.MapHTTPError does
// for hand-built clients.
func mapAPIError(err error, operation string) error {
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) && tokenErr.Response != nil &&
		tokenErr.Response.StatusCode < http.StatusInternalServerError {
		return &acl.RemoteError{
			Service:   SinkName,
			Operation: "fetch token",
			Status:    tokenErr.Response.StatusCode,
			Message:   tokenErr.ErrorCode,
		}
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return domain.NewUnavailableError(SinkName, fmt.Sprintf("%s failed: %v", operation, err))
	}

	if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
		return domain.NewUnavailableError(SinkName, apiErr.Message)
	}

	return &acl.RemoteError{
		Service:   SinkName,
		Operation: operation,
		Status:    apiErr.Code,
		Message:   apiErr.Message,
	}
}
