package acl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianfending/contact-service/internal/domain"
)

func newVerifier(t *testing.T, handler http.HandlerFunc) *RecaptchaVerifier {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL)
	cfg.ServiceName = "recaptcha"

	return NewRecaptchaVerifier(RecaptchaVerifierConfig{
		Client:    newTestClient(t, cfg),
		SecretKey: "s3cret",
	})
}

func TestRecaptchaVerifier_Verify(t *testing.T) {
	var gotPath, gotSecret, gotToken string

	v := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotSecret = r.PostForm.Get("secret")
		gotToken = r.PostForm.Get("response")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"score":0.9,"action":"contact","hostname":"brianfending.com","challenge_ts":"2025-03-14T15:09:26Z"}`))
	})

	result, err := v.Verify(context.Background(), "tok123")
	require.NoError(t, err)

	assert.Equal(t, "/recaptcha/api/siteverify", gotPath)
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, "tok123", gotToken)

	assert.True(t, result.Success)
	require.NotNil(t, result.Score)
	assert.InDelta(t, 0.9, *result.Score, 1e-9)
	assert.Equal(t, "contact", result.Action)
	assert.Equal(t, "brianfending.com", result.Hostname)
	assert.True(t, result.Passes(0.5))
}

func TestRecaptchaVerifier_Verify_Rejected(t *testing.T) {
	v := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	})

	result, err := v.Verify(context.Background(), "forged")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Nil(t, result.Score)
	assert.Equal(t, []string{"invalid-input-response"}, result.ErrorCodes)
	assert.False(t, result.Passes(0.5))
}

func TestRecaptchaVerifier_Verify_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVerifier(t, tt.handler)

			_, err := v.Verify(context.Background(), "tok")
			require.Error(t, err)
			assert.True(t, domain.IsUnavailable(err))
		})
	}
}

func TestRecaptchaVerifier_Verify_Timeout(t *testing.T) {
	v := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := v.Verify(ctx, "tok")
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestNewRecaptchaVerifier_Panics(t *testing.T) {
	assert.Panics(t, func() { NewRecaptchaVerifier(RecaptchaVerifierConfig{SecretKey: "x"}) })
	assert.Panics(t, func() {
		NewRecaptchaVerifier(RecaptchaVerifierConfig{Client: newTestClient(t, testConfig("http://localhost"))})
	})
}
