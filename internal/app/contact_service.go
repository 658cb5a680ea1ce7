// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/brianfending/contact-service/internal/domain"
	"github.com/brianfending/contact-service/internal/ports"
)

const (
	// DefaultMinScore is the verification score threshold used when none is configured.
	DefaultMinScore = 0.5

	// DefaultWriteTimeout bounds persistence and notification once they start.
	DefaultWriteTimeout = 25 * time.Second
)

// errNoSinks is the cause reported when no sink is configured at all.
var errNoSinks = errors.New("no sinks configured")

// SubmitInput is the raw contact form as received from the caller.
type SubmitInput struct {
	Name              string
	Email             string
	Subject           string
	Message           string
	VerificationToken string
}

// ContactService runs the contact submission pipeline.
// It holds no per-request state, so one instance serves concurrent requests.
type ContactService struct {
	sinks    []ports.InquirySink
	verifier ports.HumanVerifier
	notifier ports.Notifier
	minScore float64
	writeTTL time.Duration
	clock    func() time.Time
	metrics  *Metrics
	executor *Executor
	validate *validator.Validate
	logger   *slog.Logger
}

// ContactServiceConfig contains configuration for the contact service.
type ContactServiceConfig struct {
	// Sinks are tried in order; the first successful write wins.
	Sinks []ports.InquirySink

	// Verifier is optional. When nil, submissions are not bot-checked.
	Verifier ports.HumanVerifier

	// Notifier is optional. When nil, no notification is sent.
	Notifier ports.Notifier

	// MinScore is the lowest passing verification score. Zero means DefaultMinScore.
	MinScore float64

	// WriteTimeout bounds the persist and notify steps, which outlive a
	// caller that disconnects. Zero means DefaultWriteTimeout.
	WriteTimeout time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time

	// Metrics defaults to unregistered counters.
	Metrics *Metrics

	Logger *slog.Logger
}

// NewContactService creates a new contact service with the provided dependencies.
func NewContactService(cfg ContactServiceConfig) *ContactService {
	for i, sink := range cfg.Sinks {
		if sink == nil {
			panic(fmt.Sprintf("app: ContactServiceConfig.Sinks[%d] is nil", i))
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	minScore := cfg.MinScore
	if minScore == 0 {
		minScore = DefaultMinScore
	}

	writeTTL := cfg.WriteTimeout
	if writeTTL <= 0 {
		writeTTL = DefaultWriteTimeout
	}

	return &ContactService{
		sinks:    cfg.Sinks,
		verifier: cfg.Verifier,
		notifier: cfg.Notifier,
		minScore: minScore,
		writeTTL: writeTTL,
		clock:    clock,
		metrics:  metrics,
		executor: NewExecutor(logger),
		validate: validator.New(),
		logger:   logger,
	}
}

// Submit validates, verifies, persists and announces one inquiry.
//
// The returned error unwraps to domain.ErrValidation for client mistakes
// (including failed verification) and to domain.ErrPersistence when no sink
// accepted the inquiry. Notification failures are never returned.
//
// Cancelling ctx stops validation and verification, but not a write that
// has started: persist and notify run on a detached context that keeps
// ctx's values and is bounded by the write timeout.
func (s *ContactService) Submit(ctx context.Context, input SubmitInput) error {
	inquiry := domain.NewInquiry(input.Name, input.Email, input.Subject, input.Message,
		input.VerificationToken, s.clock())

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTTL)
	defer cancel()

	err := s.executor.Run(ctx, "contact.submit",
		Step{
			Name: StepValidate,
			Run:  func(ctx context.Context) error { return s.validateInquiry(inquiry) },
		},
		Step{
			Name: StepVerify,
			Skip: s.verifier == nil,
			Run:  func(ctx context.Context) error { return s.verify(ctx, inquiry) },
		},
		Step{
			Name: StepPersist,
			Run:  func(context.Context) error { return s.persist(writeCtx, inquiry) },
		},
		Step{
			Name:     StepNotify,
			Optional: true,
			Skip:     s.notifier == nil,
			Run:      func(context.Context) error { return s.notify(writeCtx, inquiry) },
		},
	)

	s.metrics.Submissions.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "inquiry accepted",
		slog.String("subject", inquiry.Subject),
		slog.String("submitted_at", inquiry.SubmittedAtISO()),
	)

	return nil
}

func (s *ContactService) validateInquiry(inquiry *domain.Inquiry) error {
	if err := inquiry.Validate(); err != nil {
		return err
	}

	if err := s.validate.Var(inquiry.Email, "email"); err != nil {
		return domain.NewValidationErrorWithValue("email", domain.MessageInvalidEmail, inquiry.Email)
	}

	return nil
}

func (s *ContactService) verify(ctx context.Context, inquiry *domain.Inquiry) error {
	if inquiry.VerificationToken == "" {
		return domain.NewVerificationError("missing token", nil)
	}

	result, err := s.verifier.Verify(ctx, inquiry.VerificationToken)
	if err != nil {
		s.logger.WarnContext(ctx, "verification provider call failed", slog.Any("error", err))
		return domain.NewVerificationError("provider call failed", err)
	}

	if !result.Passes(s.minScore) {
		attrs := []any{
			slog.Bool("success", result.Success),
			slog.Any("error_codes", result.ErrorCodes),
		}
		if result.Score != nil {
			attrs = append(attrs, slog.Float64("score", *result.Score))
		}

		s.logger.WarnContext(ctx, "verification rejected", attrs...)

		if !result.Success {
			return domain.NewVerificationError("provider rejected token", nil)
		}

		return domain.NewVerificationError("score below threshold", nil)
	}

	return nil
}

// persist writes to the first sink that accepts the inquiry.
func (s *ContactService) persist(ctx context.Context, inquiry *domain.Inquiry) error {
	if len(s.sinks) == 0 {
		s.logger.ErrorContext(ctx, "no inquiry sinks configured")
		return domain.NewPersistenceError("none", errNoSinks)
	}

	errs := make([]error, 0, len(s.sinks))

	for _, sink := range s.sinks {
		err := sink.Write(ctx, inquiry)
		s.metrics.SinkWrites.WithLabelValues(sink.Name(), resultLabel(err)).Inc()

		if err == nil {
			s.logger.InfoContext(ctx, "inquiry persisted", slog.String("sink", sink.Name()))
			return nil
		}

		s.logger.WarnContext(ctx, "sink write failed",
			slog.String("sink", sink.Name()),
			slog.Any("error", err),
		)

		errs = append(errs, err)
	}

	last := s.sinks[len(s.sinks)-1].Name()
	s.logger.ErrorContext(ctx, "all sinks failed", slog.Int("sinks", len(s.sinks)))

	return domain.NewPersistenceError(last, errors.Join(errs...))
}

func (s *ContactService) notify(ctx context.Context, inquiry *domain.Inquiry) error {
	err := s.notifier.Notify(ctx, inquiry)
	s.metrics.Notifications.WithLabelValues(resultLabel(err)).Inc()

	if err != nil && !domain.IsNotification(err) {
		return domain.NewNotificationError("email", err)
	}

	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeAccepted
	case domain.IsVerification(err):
		return OutcomeUnverified
	case domain.IsValidation(err):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}
