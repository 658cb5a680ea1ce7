// Package config loads service settings from defaults, YAML profiles and
// the environment with koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	serviceName = "contact-service"

	// One attempt per downstream call; the sink fallback absorbs transient failures.
	clientAttempts = 1

	maxRequestBytes = 64 << 10
	smtpSubmission  = 587
)

// Config is everything the service reads at startup, keyed by section.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Contact   ContactConfig   `koanf:"contact"`
}

// AppConfig identifies the running build.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig sizes the listener and bounds each request.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`

	// CORSOrigins lists the browser origins allowed to call the API. Empty
	// means the form is served from the same origin, usually behind a proxy.
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,http_url"`
}

// LogConfig selects level and encoding for the process logger.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig enables a rotated copy of the log on disk.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig points the OTLP exporter at a collector.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
}

// ClientConfig is shared by every outbound client: Jira, Sheets and reCAPTCHA.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig shapes the backoff between attempts.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig trips a downstream after consecutive failures.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig sizes the idle connection pool.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// ContactConfig groups the collaborators of the contact pipeline.
// Each collaborator is switched on by the presence of its credentials.
type ContactConfig struct {
	Recaptcha RecaptchaConfig `koanf:"recaptcha"`
	Jira      JiraConfig      `koanf:"jira"`
	Sheets    SheetsConfig    `koanf:"sheets"`
	Email     EmailConfig     `koanf:"email"`
}

// RecaptchaConfig configures bot verification.
type RecaptchaConfig struct {
	SecretKey string  `koanf:"secret_key"`
	MinScore  float64 `koanf:"min_score" validate:"min=0,max=1"`
	BaseURL   string  `koanf:"base_url"  validate:"required,url"`
}

// Enabled reports whether submissions must pass bot verification.
func (c RecaptchaConfig) Enabled() bool {
	return c.SecretKey != ""
}

// JiraConfig configures the issue tracker sink.
type JiraConfig struct {
	// Host is a site URL or a bare host name, which is reached over https.
	Host       string   `koanf:"host"        validate:"omitempty,hostname|url"`
	Username   string   `koanf:"username"    validate:"required_with=Host"`
	APIToken   string   `koanf:"api_token"   validate:"required_with=Host"`
	ProjectKey string   `koanf:"project_key" validate:"required_with=Host"`
	IssueType  string   `koanf:"issue_type"  validate:"required"`
	Labels     []string `koanf:"labels"`
}

// Enabled reports whether inquiries are filed as issues.
func (c JiraConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.APIToken != "" && c.ProjectKey != ""
}

// SheetsConfig configures the spreadsheet sink.
type SheetsConfig struct {
	ClientEmail string `koanf:"client_email" validate:"omitempty,email"`
	PrivateKey  string `koanf:"private_key"  validate:"required_with=ClientEmail"`
	SheetID     string `koanf:"sheet_id"     validate:"required_with=ClientEmail"`
	Range       string `koanf:"range"        validate:"required"`

	// Endpoint overrides the API base URL; empty uses the public endpoint.
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`

	// TokenURL is the OAuth2 token endpoint for the service account.
	TokenURL string `koanf:"token_url" validate:"required,url"`
}

// Enabled reports whether inquiries are appended to the spreadsheet.
func (c SheetsConfig) Enabled() bool {
	return c.ClientEmail != "" && c.PrivateKey != "" && c.SheetID != ""
}

// EmailConfig configures the notification mailer.
type EmailConfig struct {
	Host     string `koanf:"host"     validate:"required,hostname"`
	Port     int    `koanf:"port"     validate:"required,min=1,max=65535"`
	Username string `koanf:"username" validate:"omitempty,email"`
	Password string `koanf:"password" validate:"required_with=Username"`
	To       string `koanf:"to"       validate:"omitempty,email"`
	Timezone string `koanf:"timezone" validate:"required,timezone"`

	// Site names the website in the notification body.
	Site string `koanf:"site" validate:"required"`
}

// Enabled reports whether a notification is sent for each inquiry.
func (c EmailConfig) Enabled() bool {
	return c.Username != "" && c.Password != "" && c.To != ""
}

// legacyEnv maps the environment names used by earlier deployments to config keys.
var legacyEnv = map[string]string{
	"GOOGLE_SHEETS_CLIENT_EMAIL": "contact.sheets.client_email",
	"GOOGLE_SHEETS_PRIVATE_KEY":  "contact.sheets.private_key",
	"GOOGLE_SHEETS_SHEET_ID":     "contact.sheets.sheet_id",
	"JIRA_HOST":                  "contact.jira.host",
	"JIRA_USERNAME":              "contact.jira.username",
	"JIRA_API_TOKEN":             "contact.jira.api_token",
	"JIRA_PROJECT_KEY":           "contact.jira.project_key",
	"JIRA_ISSUE_TYPE":            "contact.jira.issue_type",
	"RECAPTCHA_SECRET_KEY":       "contact.recaptcha.secret_key",
	"RECAPTCHA_MIN_SCORE":        "contact.recaptcha.min_score",
	"EMAIL_USERNAME":             "contact.email.username",
	"EMAIL_PASSWORD":             "contact.email.password",
	"NOTIFICATION_EMAIL":         "contact.email.to",
}

// under copies values into dst with their keys prefixed by section.
func under(dst map[string]any, section string, values map[string]any) {
	for key, value := range values {
		dst[section+"."+key] = value
	}
}

// defaults is the flat key map loaded beneath every file and variable.
func defaults() map[string]any {
	d := make(map[string]any)

	under(d, "app", map[string]any{"name": serviceName, "version": "dev", "environment": "local"})

	under(d, "server", map[string]any{
		"port":             8080,
		"host":             "0.0.0.0",
		"read_timeout":     "15s",
		"write_timeout":    "30s",
		"idle_timeout":     "120s",
		"shutdown_timeout": "10s",
		"request_timeout":  "25s",
		"max_request_size": maxRequestBytes,
		"cors_origins":     []string{},
	})

	under(d, "log", map[string]any{"level": "info", "format": "json"})
	under(d, "log.file", map[string]any{
		"enabled":     false,
		"path":        "./logs/" + serviceName + ".log",
		"max_size":    100,
		"max_backups": 3,
		"max_age":     28,
		"compress":    true,
	})

	under(d, "telemetry", map[string]any{
		"enabled":       false,
		"endpoint":      "",
		"service_name":  serviceName,
		"sampling_rate": 1.0,
		"insecure":      true,
	})

	under(d, "client", map[string]any{"timeout": "10s"})
	under(d, "client.retry", map[string]any{
		"max_attempts":     clientAttempts,
		"initial_interval": "100ms",
		"max_interval":     "2s",
		"multiplier":       2.0,
		"jitter_factor":    0.25,
	})
	under(d, "client.circuit_breaker", map[string]any{"max_failures": 5, "timeout": "30s", "half_open_limit": 3})
	under(d, "client.transport", map[string]any{
		"max_idle_conns":          100,
		"max_idle_conns_per_host": 10,
		"idle_conn_timeout":       "90s",
	})

	under(d, "contact.recaptcha", map[string]any{
		"secret_key": "",
		"min_score":  0.5,
		"base_url":   "https://www.google.com",
	})
	under(d, "contact.jira", map[string]any{
		"host":        "",
		"username":    "",
		"api_token":   "",
		"project_key": "",
		"issue_type":  "Task",
		"labels":      []string{"contact-form", "website"},
	})
	under(d, "contact.sheets", map[string]any{
		"client_email": "",
		"private_key":  "",
		"sheet_id":     "",
		"range":        "Sheet1!A:E",
		"endpoint":     "",
		"token_url":    "https://oauth2.googleapis.com/token",
	})
	under(d, "contact.email", map[string]any{
		"host":     "smtp.gmail.com",
		"port":     smtpSubmission,
		"username": "",
		"password": "",
		"to":       "",
		"timezone": "America/New_York",
		"site":     "brianfending.com",
	})

	return d
}

// Load layers configuration, later sources winning:
//
//	defaults < configs/base.yaml < configs/{profile}.yaml < legacy names < APP_*
//
// Legacy names are the bare variables older deployments set, such as
// JIRA_HOST or GOOGLE_SHEETS_SHEET_ID. Missing YAML files are skipped.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []string{"configs/base.yaml"}
	if profile != "" {
		files = append(files, "configs/"+profile+".yaml")
	}

	for _, path := range files {
		if err := loadFileIfExists(k, path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", legacyEnvMapper), nil); err != nil {
		return nil, fmt.Errorf("loading legacy env vars: %w", err)
	}

	if err := k.Load(env.ProviderWithValue("APP_", ".", splitLists(envKeyMapper(k.Keys()))), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Keys pasted from a service-account JSON carry literal \n sequences.
	cfg.Contact.Sheets.PrivateKey = strings.ReplaceAll(cfg.Contact.Sheets.PrivateKey, `\n`, "\n")

	return &cfg, nil
}

// legacyEnvMapper returns the config key for a known legacy variable and
// an empty key for everything else, which makes koanf skip it.
func legacyEnvMapper(name, value string) (string, any) {
	key, ok := legacyEnv[name]
	if !ok || value == "" {
		return "", nil
	}

	return key, value
}

// envKeyMapper turns APP_SERVER_READ_TIMEOUT into server.read_timeout.
// Underscores are ambiguous, so known keys are matched first; unknown names
// fall back to replacing every underscore with a dot.
func envKeyMapper(known []string) func(string) string {
	byFlat := make(map[string]string, len(known))
	for _, key := range known {
		byFlat[strings.ReplaceAll(key, "_", ".")] = key
	}

	return func(s string) string {
		flat := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "_", ".")
		if key, ok := byFlat[flat]; ok {
			return key
		}

		return flat
	}
}

// listKeys are the settings read from the environment as comma-separated lists.
var listKeys = map[string]bool{
	"server.cors_origins": true,
	"contact.jira.labels": true,
}

// splitLists maps the variable name with mapKey and splits list values,
// so APP_SERVER_CORS_ORIGINS="https://a.com, https://b.com" yields two origins.
func splitLists(mapKey func(string) string) func(string, string) (string, any) {
	return func(name, value string) (string, any) {
		key := mapKey(name)
		if !listKeys[key] {
			return key, value
		}

		items := make([]string, 0, strings.Count(value, ",")+1)
		for item := range strings.SplitSeq(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}

		return key, items
	}
}

// loadFileIfExists merges a YAML file into k. A missing file is not an error.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
