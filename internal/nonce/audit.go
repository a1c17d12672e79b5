package nonce

import (
	"context"

	"github.com/dmitrijs2005/framegate/internal/logging"
)

// FailureEvent describes a nonce that matched neither tick.
type FailureEvent struct {
	Nonce        string
	Action       string
	UserID       int64
	RemoteUserID int64
	// Reserved is always empty; downstream audit consumers expect the field.
	Reserved string
}

// Auditor receives verification failures.
type Auditor interface {
	VerificationFailed(ctx context.Context, event FailureEvent)
}

// NopAuditor discards events.
type NopAuditor struct{}

// VerificationFailed drops the event.
func (NopAuditor) VerificationFailed(context.Context, FailureEvent) {}

// LogAuditor writes failures to a structured logger at WARN level.
type LogAuditor struct {
	logger logging.Logger
}

// NewLogAuditor returns a LogAuditor writing through l.
func NewLogAuditor(l logging.Logger) *LogAuditor {
	return &LogAuditor{logger: l.With("module", "nonce_audit")}
}

// VerificationFailed logs "verify nonce failed" with the event fields.
func (a *LogAuditor) VerificationFailed(ctx context.Context, event FailureEvent) {
	a.logger.Warn(ctx, "verify nonce failed",
		"nonce", event.Nonce,
		"action", event.Action,
		"user_id", event.UserID,
		"remote_user_id", event.RemoteUserID,
		"reserved", event.Reserved,
	)
}
