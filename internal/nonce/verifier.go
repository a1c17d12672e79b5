package nonce

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/dmitrijs2005/framegate/internal/clock"
	"github.com/dmitrijs2005/framegate/internal/common"
)

// PrincipalResolver maps a local user id to the id of the linked remote
// account.
type PrincipalResolver interface {
	RemoteID(ctx context.Context, userID int64) (int64, error)
}

// SecretStore returns the per-user secret nonces are keyed with. The
// returned slice is owned by the caller.
type SecretStore interface {
	Secret(ctx context.Context, userID int64) ([]byte, error)
}

// Verifier mints and checks frame nonces. It holds no mutable state and is
// safe for concurrent use.
type Verifier struct {
	principals PrincipalResolver
	secrets    SecretStore
	hasher     Hasher
	auditor    Auditor
	lifetime   time.Duration
	clock      clock.Clock
}

// NewVerifier constructs a Verifier. A zero lifetime means DefaultLifetime;
// nil hasher, auditor or clock fall back to HMACMD5, NopAuditor and the
// real clock.
func NewVerifier(principals PrincipalResolver, secrets SecretStore, hasher Hasher, auditor Auditor, lifetime time.Duration, clk clock.Clock) *Verifier {
	if hasher == nil {
		hasher = HMACMD5{}
	}
	if auditor == nil {
		auditor = NopAuditor{}
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Verifier{
		principals: principals,
		secrets:    secrets,
		hasher:     hasher,
		auditor:    auditor,
		lifetime:   lifetime,
		clock:      clk,
	}
}

// Verify checks token against the current and the previous tick for the
// given user and action. An empty action means UnscopedAction. Empty
// tokens and "0" are rejected before any lookup and are not audited.
//
// Every failure, including an unresolvable principal or a missing secret,
// is reported as Invalid.
func (v *Verifier) Verify(ctx context.Context, userID int64, token string, action string) Result {
	if blankToken(token) {
		return Invalid
	}
	if action == "" {
		action = UnscopedAction
	}

	remoteID, err := v.principals.RemoteID(ctx, userID)
	if err != nil || remoteID == 0 {
		return Invalid
	}

	secret, err := v.secrets.Secret(ctx, userID)
	if err != nil {
		return Invalid
	}
	defer common.WipeByteArray(secret)

	tick := Tick(v.clock.Now(), v.lifetime)

	// Nonce generated 0-12 hours ago.
	if equal(Compute(v.hasher, secret, tick, action, remoteID), token) {
		return ValidRecent
	}

	// Nonce generated 12-24 hours ago.
	if equal(Compute(v.hasher, secret, tick-1, action, remoteID), token) {
		return ValidStale
	}

	v.auditor.VerificationFailed(ctx, FailureEvent{
		Nonce:        token,
		Action:       action,
		UserID:       userID,
		RemoteUserID: remoteID,
	})
	return Invalid
}

// Create mints the nonce for the current tick.
func (v *Verifier) Create(ctx context.Context, userID int64, action string) (string, error) {
	if action == "" {
		action = UnscopedAction
	}

	remoteID, err := v.principals.RemoteID(ctx, userID)
	if err != nil {
		return "", err
	}
	if remoteID == 0 {
		return "", common.ErrNotConnected
	}

	secret, err := v.secrets.Secret(ctx, userID)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(secret)

	return Compute(v.hasher, secret, Tick(v.clock.Now(), v.lifetime), action, remoteID), nil
}

// blankToken reports whether token counts as absent; "0" is treated like
// an empty value.
func blankToken(token string) bool {
	return token == "" || token == "0"
}

func equal(expected, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}
