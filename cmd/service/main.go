// Package main is the entry point for the contact form service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brianfending/contact-service/internal/adapters/clients"
	"github.com/brianfending/contact-service/internal/adapters/clients/acl"
	"github.com/brianfending/contact-service/internal/adapters/http"
	"github.com/brianfending/contact-service/internal/adapters/http/handlers"
	"github.com/brianfending/contact-service/internal/adapters/mail"
	"github.com/brianfending/contact-service/internal/adapters/sheets"
	"github.com/brianfending/contact-service/internal/app"
	"github.com/brianfending/contact-service/internal/platform/config"
	"github.com/brianfending/contact-service/internal/platform/logging"
	"github.com/brianfending/contact-service/internal/platform/telemetry"
	"github.com/brianfending/contact-service/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	if telProvider.Enabled() {
		logger.Info("telemetry exporting", slog.String("endpoint", cfg.Telemetry.Endpoint))
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	// 6. Create downstream adapters (ACL pattern)
	sinks, err := buildSinks(ctx, cfg, logger, healthRegistry)
	if err != nil {
		return err
	}

	verifier, err := buildVerifier(cfg, logger)
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}

	// 7. Create contact service (application layer)
	contactService := app.NewContactService(app.ContactServiceConfig{
		Sinks:        sinks,
		Verifier:     verifier,
		Notifier:     notifier,
		MinScore:     cfg.Contact.Recaptcha.MinScore,
		WriteTimeout: cfg.Server.RequestTimeout,
		Metrics:      app.NewMetrics(prometheus.DefaultRegisterer),
		Logger:       logger,
	})

	// 8. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo, prometheus.DefaultGatherer)
	contactHandler := handlers.NewContactHandler(contactService)

	// 9. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 10. Setup router with all middleware and routes
	routerCfg := http.NewDefaultRouterConfig(logger, &cfg.App, &cfg.Server, healthHandler, contactHandler)
	panicHook, _ := http.PanicCounter(prometheus.DefaultRegisterer)
	routerCfg.PanicHooks = append(routerCfg.PanicHooks, panicHook)
	http.SetupRouter(server.Engine(), routerCfg)

	// 11. Bind and serve in the background
	serverErr, err := server.Start()
	if err != nil {
		return err
	}

	// 12. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// healthSuffix names the client that serves a sink's readiness check.
const healthSuffix = "_health"

// clientConfig builds the client settings for one downstream. Writes that
// create records are not idempotent, so sinks pass maxAttempts 1.
func clientConfig(cfg *config.Config, logger *slog.Logger, name, baseURL string, maxAttempts int) *clients.Config {
	retry := cfg.Client.Retry
	if maxAttempts > 0 {
		retry.MaxAttempts = maxAttempts
	}

	return &clients.Config{
		BaseURL:     baseURL,
		ServiceName: name,
		Timeout:     cfg.Client.Timeout,
		Retry:       retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	}
}

// buildSinks returns the configured sinks in priority order: Jira, then Sheets.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger, registry ports.HealthRegistry) ([]ports.InquirySink, error) {
	var sinks []ports.InquirySink

	if jira := cfg.Contact.Jira; jira.Enabled() {
		clientCfg := clientConfig(cfg, logger, acl.JiraSinkName, acl.JiraBaseURL(jira.Host), 1)
		clientCfg.AuthFunc = acl.JiraBasicAuth(jira.Username, jira.APIToken)

		client, err := clients.New(clientCfg)
		if err != nil {
			return nil, fmt.Errorf("creating jira client: %w", err)
		}

		healthCfg := *clientCfg
		healthCfg.ServiceName += healthSuffix

		healthClient, err := clients.New(&healthCfg)
		if err != nil {
			return nil, fmt.Errorf("creating jira health client: %w", err)
		}

		sink := acl.NewJiraSink(acl.JiraSinkConfig{
			Client:       client,
			HealthClient: healthClient,
			ProjectKey:   jira.ProjectKey,
			IssueType:    jira.IssueType,
			Labels:       jira.Labels,
			Logger:       logger,
		})

		if err := registry.Register(sink); err != nil {
			return nil, fmt.Errorf("registering jira health check: %w", err)
		}

		sinks = append(sinks, sink)
	}

	if sc := cfg.Contact.Sheets; sc.Enabled() {
		client, err := clients.New(clientConfig(cfg, logger, sheets.SinkName, "", 1))
		if err != nil {
			return nil, fmt.Errorf("creating sheets client: %w", err)
		}

		healthClient, err := clients.New(clientConfig(cfg, logger, sheets.SinkName+healthSuffix, "", 1))
		if err != nil {
			return nil, fmt.Errorf("creating sheets health client: %w", err)
		}

		sink, err := sheets.NewSink(ctx, sheets.Config{
			ClientEmail:     sc.ClientEmail,
			PrivateKey:      sc.PrivateKey,
			SheetID:         sc.SheetID,
			Range:           sc.Range,
			Endpoint:        sc.Endpoint,
			TokenURL:        sc.TokenURL,
			Transport:       client.RoundTripper(),
			HealthTransport: healthClient.RoundTripper(),
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating sheets sink: %w", err)
		}

		if err := registry.Register(sink); err != nil {
			return nil, fmt.Errorf("registering sheets health check: %w", err)
		}

		sinks = append(sinks, sink)
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}

	if len(sinks) == 0 {
		logger.Warn("no inquiry sinks configured, every submission will fail")
	} else {
		logger.Info("inquiry sinks configured", slog.Any("sinks", names))
	}

	return sinks, nil
}

// buildVerifier returns nil when no reCAPTCHA secret is configured.
func buildVerifier(cfg *config.Config, logger *slog.Logger) (ports.HumanVerifier, error) {
	rc := cfg.Contact.Recaptcha
	if !rc.Enabled() {
		logger.Warn("recaptcha not configured, submissions are not bot-checked")
		return nil, nil
	}

	client, err := clients.New(clientConfig(cfg, logger, "recaptcha", rc.BaseURL, 0))
	if err != nil {
		return nil, fmt.Errorf("creating recaptcha client: %w", err)
	}

	return acl.NewRecaptchaVerifier(acl.RecaptchaVerifierConfig{
		Client:    client,
		SecretKey: rc.SecretKey,
		Logger:    logger,
	}), nil
}

// buildNotifier returns nil when email credentials are absent.
func buildNotifier(cfg *config.Config, logger *slog.Logger) (ports.Notifier, error) {
	ec := cfg.Contact.Email
	if !ec.Enabled() {
		logger.Info("email notifications disabled")
		return nil, nil
	}

	location, err := time.LoadLocation(ec.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading notification timezone: %w", err)
	}

	notifier, err := mail.NewNotifier(mail.Config{
		Host:     ec.Host,
		Port:     ec.Port,
		Username: ec.Username,
		Password: ec.Password,
		To:       ec.To,
		Location: location,
		Site:     ec.Site,
		Timeout:  cfg.Client.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	return notifier, nil
}

// waitForShutdown blocks until SIGINT/SIGTERM or a serve error, then drains
// in-flight submissions within shutdownTimeout.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}

		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		logger.Info("received shutdown signal", slog.Any("cause", context.Cause(sigCtx)))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
