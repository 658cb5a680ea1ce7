package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianfending/contact-service/internal/adapters/clients/acl"
	"github.com/brianfending/contact-service/internal/adapters/sheets"
	"github.com/brianfending/contact-service/internal/domain"
	"github.com/brianfending/contact-service/internal/platform/config"
	"github.com/brianfending/contact-service/internal/ports"
)

var testInquiry = domain.NewInquiry("Jane Doe", "jane@example.com", "Consulting", "Let's talk", "",
	time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC))

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)

	return cfg
}

func testPrivateKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func enableJira(cfg *config.Config, host string) {
	cfg.Contact.Jira.Host = host
	cfg.Contact.Jira.Username = "bot@example.com"
	cfg.Contact.Jira.APIToken = "api-token"
	cfg.Contact.Jira.ProjectKey = "WEB"
}

func enableSheets(t *testing.T, cfg *config.Config, baseURL string) {
	t.Helper()

	cfg.Contact.Sheets.ClientEmail = "contact@project.iam.gserviceaccount.com"
	cfg.Contact.Sheets.PrivateKey = testPrivateKey(t)
	cfg.Contact.Sheets.SheetID = "sheet-123"
	cfg.Contact.Sheets.Endpoint = baseURL + "/"
	cfg.Contact.Sheets.TokenURL = baseURL + "/token"
}

func sinkNames(sinks []ports.InquirySink) []string {
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}

	return names
}

func TestBuildSinks_Order(t *testing.T) {
	tests := []struct {
		name   string
		jira   bool
		sheets bool
		want   []string
	}{
		{name: "jira then sheets", jira: true, sheets: true, want: []string{acl.JiraSinkName, sheets.SinkName}},
		{name: "jira alone", jira: true, want: []string{acl.JiraSinkName}},
		{name: "sheets alone", sheets: true, want: []string{sheets.SinkName}},
		{name: "nothing configured", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			if tt.jira {
				enableJira(cfg, "example.atlassian.net")
			}
			if tt.sheets {
				enableSheets(t, cfg, "https://sheets.invalid")
			}

			registry := ports.NewHealthRegistry()

			sinks, err := buildSinks(context.Background(), cfg, discardLogger(), registry)
			require.NoError(t, err)

			assert.Equal(t, tt.want, sinkNames(sinks))

			// Every sink is registered as a health check under its own name.
			for _, s := range sinks {
				assert.ErrorIs(t, registry.Register(s), ports.ErrDuplicateChecker)
			}
		})
	}
}

func TestBuildSinks_SingleAttempt(t *testing.T) {
	var jiraCalls, sheetsCalls atomic.Int32

	jira := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jiraCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(jira.Close)

	google := http.NewServeMux()
	google.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
	})
	google.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		sheetsCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend error"}}`))
	})
	sheetsServer := httptest.NewServer(google)
	t.Cleanup(sheetsServer.Close)

	cfg := loadConfig(t)
	cfg.Client.Retry.MaxAttempts = 3
	cfg.Client.Retry.InitialInterval = time.Millisecond
	cfg.Client.Retry.MaxInterval = time.Millisecond
	enableJira(cfg, jira.URL)
	enableSheets(t, cfg, sheetsServer.URL)

	sinks, err := buildSinks(context.Background(), cfg, discardLogger(), ports.NewHealthRegistry())
	require.NoError(t, err)
	require.Len(t, sinks, 2)

	for _, s := range sinks {
		err := s.Write(context.Background(), testInquiry)
		assert.True(t, domain.IsPersistence(err), "%s: %v", s.Name(), err)
	}

	assert.Equal(t, int32(1), jiraCalls.Load())
	assert.Equal(t, int32(1), sheetsCalls.Load())
}

func TestClientConfig_Attempts(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Client.Retry.MaxAttempts = 3

	tests := []struct {
		name        string
		maxAttempts int
		want        int
	}{
		{name: "sink write", maxAttempts: 1, want: 1},
		{name: "configured policy", maxAttempts: 0, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clientConfig(cfg, discardLogger(), "jira", "https://example.atlassian.net", tt.maxAttempts)

			assert.Equal(t, tt.want, got.Retry.MaxAttempts)
			assert.Equal(t, "jira", got.ServiceName)
			assert.False(t, got.ForwardIdentity)
		})
	}
}

func TestBuildVerifier(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantNil bool
	}{
		{name: "no secret", wantNil: true},
		{name: "secret configured", secret: "recaptcha-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			cfg.Contact.Recaptcha.SecretKey = tt.secret

			verifier, err := buildVerifier(cfg, discardLogger())
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, verifier)
			} else {
				assert.NotNil(t, verifier)
			}
		})
	}
}

func TestBuildNotifier(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.EmailConfig)
		wantNil bool
		wantErr string
	}{
		{
			name:    "no credentials",
			mutate:  func(*config.EmailConfig) {},
			wantNil: true,
		},
		{
			name: "credentials without recipient",
			mutate: func(e *config.EmailConfig) {
				e.Username = "sender@example.com"
				e.Password = "app-password"
			},
			wantNil: true,
		},
		{
			name: "fully configured",
			mutate: func(e *config.EmailConfig) {
				e.Username = "sender@example.com"
				e.Password = "app-password"
				e.To = "owner@example.com"
			},
		},
		{
			name: "unknown timezone",
			mutate: func(e *config.EmailConfig) {
				e.Username = "sender@example.com"
				e.Password = "app-password"
				e.To = "owner@example.com"
				e.Timezone = "Mars/Olympus_Mons"
			},
			wantErr: "loading notification timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			tt.mutate(&cfg.Contact.Email)

			notifier, err := buildNotifier(cfg, discardLogger())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, notifier)
			} else {
				assert.NotNil(t, notifier)
			}
		})
	}
}
