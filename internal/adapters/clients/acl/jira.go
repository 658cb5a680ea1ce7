package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brianfending/contact-service/internal/adapters/clients"
	"github.com/brianfending/contact-service/internal/domain"
	"github.com/brianfending/contact-service/internal/platform/logging"
)

const (
	// JiraSinkName names the sink in logs, metrics and health checks.
	JiraSinkName = "jira"

	jiraIssuePath  = "/rest/api/2/issue"
	jiraMyselfPath = "/rest/api/2/myself"

	defaultJiraIssueType = "Task"
)

// DefaultJiraLabels are attached to every issue when none are configured.
var DefaultJiraLabels = []string{"contact-form", "website"}

// JiraBaseURL turns a configured host into a base URL. A bare host such as
// "example.atlassian.net" gets https.
func JiraBaseURL(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}

	return "https://" + host
}

// JiraBasicAuth returns a clients.Config AuthFunc that signs requests with
// a Jira Cloud username and API token.
func JiraBasicAuth(username, apiToken string) func(*http.Request) {
	return func(r *http.Request) {
		r.SetBasicAuth(username, apiToken)
	}
}

// JiraSinkConfig contains configuration for the Jira sink.
type JiraSinkConfig struct {
	// Client is the HTTP client; its BaseURL is the Jira site and its
	// AuthFunc adds basic auth (see JiraBasicAuth).
	Client *clients.Client

	// HealthClient serves Check. Defaults to Client. A separate client keeps
	// failing health checks out of the write path's circuit breaker.
	HealthClient *clients.Client

	ProjectKey string

	// IssueType defaults to "Task".
	IssueType string

	// Labels default to DefaultJiraLabels.
	Labels []string

	Logger *slog.Logger
}

// JiraSink implements ports.InquirySink by opening one Jira issue per inquiry.
type JiraSink struct {
	BaseAdapter
	health     BaseAdapter
	projectKey string
	issueType  string
	labels     []string
	logger     *slog.Logger
}

// NewJiraSink creates a new Jira sink.
// Panics if Client is nil or ProjectKey is empty.
func NewJiraSink(cfg JiraSinkConfig) *JiraSink {
	if cfg.Client == nil {
		panic("JiraSink: Client is required")
	}

	if cfg.ProjectKey == "" {
		panic("JiraSink: ProjectKey is required")
	}

	issueType := cfg.IssueType
	if issueType == "" {
		issueType = defaultJiraIssueType
	}

	labels := cfg.Labels
	if len(labels) == 0 {
		labels = DefaultJiraLabels
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	healthClient := cfg.HealthClient
	if healthClient == nil {
		healthClient = cfg.Client
	}

	return &JiraSink{
		BaseAdapter: NewBaseAdapter(cfg.Client, JiraSinkName),
		health:      NewBaseAdapter(healthClient, JiraSinkName),
		projectKey:  cfg.ProjectKey,
		issueType:   issueType,
		labels:      labels,
		logger:      logger,
	}
}

// External DTOs for the create-issue call.
type (
	jiraIssueRequest struct {
		Fields jiraIssueFields `json:"fields"`
	}

	jiraIssueFields struct {
		Project     jiraRef  `json:"project"`
		Summary     string   `json:"summary"`
		Description string   `json:"description"`
		IssueType   jiraRef  `json:"issuetype"`
		Labels      []string `json:"labels,omitempty"`
	}

	jiraRef struct {
		Key  string `json:"key,omitempty"`
		Name string `json:"name,omitempty"`
	}

	jiraIssueResponse struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Self string `json:"self"`
	}
)

// Name returns the sink name. Implements ports.InquirySink and ports.HealthChecker.
func (s *JiraSink) Name() string {
	return JiraSinkName
}

// Write creates an issue for the inquiry. Any failure is a *domain.PersistenceError.
func (s *JiraSink) Write(ctx context.Context, inquiry *domain.Inquiry) error {
	s.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", jiraIssuePath))

	body, err := s.PostJSON(ctx, jiraIssuePath, s.translateInquiry(inquiry), "create issue")
	if err != nil {
		return domain.NewPersistenceError(JiraSinkName, err)
	}

	created, err := DecodeResponse[jiraIssueResponse](body)
	if err != nil {
		// The issue exists; only the acknowledgement was unreadable.
		s.logger.WarnContext(ctx, "jira issue created with unreadable response", slog.Any("error", err))
		return nil
	}

	s.logger.InfoContext(ctx, "jira issue created", slog.String("issue", created.Key))

	return nil
}

// translateInquiry builds the create-issue body.
func (s *JiraSink) translateInquiry(inquiry *domain.Inquiry) *jiraIssueRequest {
	return &jiraIssueRequest{
		Fields: jiraIssueFields{
			Project:     jiraRef{Key: s.projectKey},
			Summary:     inquiry.IssueTitle(),
			Description: inquiry.IssueBody(),
			IssueType:   jiraRef{Name: s.issueType},
			Labels:      s.labels,
		},
	}
}

// Check verifies the credentials by fetching the authenticated user.
// Implements ports.HealthChecker.
func (s *JiraSink) Check(ctx context.Context) error {
	body, err := s.health.Get(ctx, jiraMyselfPath, "get current user")
	if err != nil {
		return fmt.Errorf("jira health check: %w", err)
	}

	return body.Close()
}
