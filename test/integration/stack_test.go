//go:build integration

package integration

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brianfending/contact-service/internal/adapters/clients"
	"github.com/brianfending/contact-service/internal/adapters/clients/acl"
	httpadapter "github.com/brianfending/contact-service/internal/adapters/http"
	"github.com/brianfending/contact-service/internal/adapters/http/handlers"
	"github.com/brianfending/contact-service/internal/adapters/sheets"
	"github.com/brianfending/contact-service/internal/app"
	"github.com/brianfending/contact-service/internal/platform/config"
	"github.com/brianfending/contact-service/internal/ports"
)

// downstream is a fake remote service that can be switched off.
type downstream struct {
	up    atomic.Bool
	calls atomic.Int32
}

func newDownstream() *downstream {
	d := &downstream{}
	d.up.Store(true)

	return d
}

// fakeJira records created issues.
type fakeJira struct {
	*downstream

	mu     sync.Mutex
	issues []string
}

func (f *fakeJira) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	if !f.up.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(`{"accountId":"bot"}`))
		return
	}

	var body struct {
		Fields struct {
			Summary string `json:"summary"`
		} `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.issues = append(f.issues, body.Fields.Summary)
	key := fmt.Sprintf("WEB-%d", len(f.issues))
	f.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `{"key":%q}`, key)
}

func (f *fakeJira) issueCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.issues)
}

// fakeGoogle serves the token endpoint and the Sheets append call.
type fakeGoogle struct {
	*downstream

	mu   sync.Mutex
	rows [][]any
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/token" {
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
		return
	}

	f.calls.Add(1)

	if !f.up.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend error"}}`))
		return
	}

	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123"}`))
		return
	}

	var body struct {
		Values [][]any `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.rows = append(f.rows, body.Values...)
	f.mu.Unlock()

	_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Sheet1!A2:E2","updatedRows":1}}`))
}

func (f *fakeGoogle) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.rows)
}

// fakeRecaptcha answers siteverify with a configurable score.
type fakeRecaptcha struct {
	*downstream

	score atomic.Value
}

func (f *fakeRecaptcha) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	if !f.up.Load() {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	_ = r.ParseForm()
	if r.PostForm.Get("response") == "" {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["missing-input-response"]}`))
		return
	}

	_, _ = fmt.Fprintf(w, `{"success":true,"score":%v,"action":"contact"}`, f.score.Load())
}

// stack is the whole service running in process against fake downstreams.
type stack struct {
	jira      *fakeJira
	google    *fakeGoogle
	recaptcha *fakeRecaptcha

	servers []*httptest.Server
	api     *httptest.Server
}

func newStack() (*stack, error) {
	s := &stack{
		jira:      &fakeJira{downstream: newDownstream()},
		google:    &fakeGoogle{downstream: newDownstream()},
		recaptcha: &fakeRecaptcha{downstream: newDownstream()},
	}
	s.recaptcha.score.Store(0.9)

	jiraSrv := s.serve(s.jira)
	googleSrv := s.serve(s.google)
	recaptchaSrv := s.serve(s.recaptcha)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	clientCfg := func(name, baseURL string) *clients.Config {
		return &clients.Config{
			BaseURL:     baseURL,
			ServiceName: name,
			Timeout:     2 * time.Second,
			Retry: config.RetryConfig{
				MaxAttempts:     1,
				InitialInterval: 10 * time.Millisecond,
				MaxInterval:     50 * time.Millisecond,
				Multiplier:      2.0,
			},
			Circuit: config.CircuitBreakerConfig{
				MaxFailures:   1000,
				Timeout:       time.Second,
				HalfOpenLimit: 1,
			},
			Logger: logger,
		}
	}

	jiraCfg := clientCfg(acl.JiraSinkName, jiraSrv.URL)
	jiraCfg.AuthFunc = acl.JiraBasicAuth("bot@example.com", "token")

	jiraClient, err := clients.New(jiraCfg)
	if err != nil {
		return nil, err
	}

	sheetsClient, err := clients.New(clientCfg(sheets.SinkName, ""))
	if err != nil {
		return nil, err
	}

	recaptchaClient, err := clients.New(clientCfg("recaptcha", recaptchaSrv.URL))
	if err != nil {
		return nil, err
	}

	key, err := privateKeyPEM()
	if err != nil {
		return nil, err
	}

	sheetSink, err := sheets.NewSink(context.Background(), sheets.Config{
		ClientEmail: "contact@project.iam.gserviceaccount.com",
		PrivateKey:  key,
		SheetID:     "sheet-123",
		Range:       "Sheet1!A:E",
		Endpoint:    googleSrv.URL + "/",
		TokenURL:    googleSrv.URL + "/token",
		Transport:   sheetsClient.RoundTripper(),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	jiraSink := acl.NewJiraSink(acl.JiraSinkConfig{Client: jiraClient, ProjectKey: "WEB", Logger: logger})

	registry := ports.NewHealthRegistry()
	_ = registry.Register(jiraSink)
	_ = registry.Register(sheetSink)

	service := app.NewContactService(app.ContactServiceConfig{
		Sinks: []ports.InquirySink{jiraSink, sheetSink},
		Verifier: acl.NewRecaptchaVerifier(acl.RecaptchaVerifierConfig{
			Client:    recaptchaClient,
			SecretKey: "secret",
			Logger:    logger,
		}),
		Metrics: app.NewMetrics(prometheus.NewRegistry()),
		Logger:  logger,
	})

	server := httpadapter.New(&config.ServerConfig{
		Port:           8080,
		Host:           "127.0.0.1",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxRequestSize: 64 << 10,
	}, logger)

	engine := server.Engine()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		Logger:         logger,
		AppConfig:      &config.AppConfig{Name: "contact-service", Version: "test", Environment: "test"},
		HealthHandler:  handlers.NewHealthHandler(registry, handlers.BuildInfo{}, prometheus.NewRegistry()),
		ContactHandler: handlers.NewContactHandler(service),
		Timeout:        5 * time.Second,
	})

	s.api = httptest.NewServer(engine)

	return s, nil
}

func (s *stack) serve(h http.Handler) *httptest.Server {
	srv := httptest.NewServer(h)
	s.servers = append(s.servers, srv)

	return srv
}

func (s *stack) Close() {
	if s.api != nil {
		s.api.Close()
	}

	for _, srv := range s.servers {
		srv.Close()
	}
}

// inquiriesRecorded counts inquiries across both sinks.
func (s *stack) inquiriesRecorded() int {
	return s.jira.issueCount() + s.google.rowCount()
}

func privateKeyPEM() (string, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", err
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", err
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}
