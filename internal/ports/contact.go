// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrPersistence, ErrUnavailable, etc.)
package ports

import (
	"context"

	"github.com/brianfending/contact-service/internal/domain"
)

// InquirySink durably records an inquiry in an external system.
// Sinks are interchangeable: the application tries them in priority order
// and stops at the first one that accepts the write.
type InquirySink interface {
	// Name identifies the sink in logs, metrics and error messages.
	Name() string

	// Write records the inquiry exactly once.
	// Any failure is returned as a *domain.PersistenceError.
	Write(ctx context.Context, inquiry *domain.Inquiry) error
}

// HumanVerifier checks a bot-verification token with an external provider.
type HumanVerifier interface {
	// Verify returns the provider's verdict for the token.
	// Transport failures return domain.ErrUnavailable; the caller decides
	// how to treat them.
	Verify(ctx context.Context, token string) (*domain.Verification, error)
}

// Notifier delivers a best-effort notice that an inquiry was received.
type Notifier interface {
	Notify(ctx context.Context, inquiry *domain.Inquiry) error
}
