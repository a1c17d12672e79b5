// Package frame lets the partner's editor iframe load admin pages that are
// otherwise protected by X-Frame-Options.
//
// A request is allowed to be framed when it carries a frame-nonce query
// parameter that verifies for the signed-in user and the action
// "frame-<install id>". Allowed requests get no X-Frame-Options header and
// are marked as iframe requests so pages can adapt (see BodyClass).
package frame

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/logging"
	"github.com/dmitrijs2005/framegate/internal/nonce"
	"github.com/dmitrijs2005/framegate/internal/server/auth"
)

const (
	HeaderFrameOptions = "X-Frame-Options"
	frameOptionsValue  = "SAMEORIGIN"
	iframedBodyClass   = " is-iframed "
)

// Verifier checks a nonce for a local user.
type Verifier interface {
	Verify(ctx context.Context, userID int64, token string, action string) nonce.Result
}

// Gate decides whether a request may be rendered inside the partner iframe.
// It is safe for concurrent use.
type Gate struct {
	verifier Verifier
	action   string
	logger   logging.Logger
}

// NewGate returns a Gate checking nonces with v for the action of installID.
func NewGate(v Verifier, installID string, l logging.Logger) *Gate {
	return &Gate{
		verifier: v,
		action:   Action(installID),
		logger:   l.With("module", "frame_gate"),
	}
}

// Action is the nonce action frame nonces are scoped to.
func Action(installID string) string {
	return common.FrameActionPrefix + installID
}

// IsFramingAllowed reports whether r carries a frame nonce that verifies
// for the signed-in user. When r's context holds a RequestState the result
// is computed once per request, and an allowed request is marked as an
// iframe request.
func (g *Gate) IsFramingAllowed(r *http.Request) bool {
	ctx := r.Context()
	state := StateFrom(ctx)
	if state != nil {
		if allowed, checked := state.decision(); checked {
			return allowed
		}
	}

	allowed := g.check(r)

	if state != nil {
		state.decide(allowed)
		if allowed {
			state.MarkIframeRequest()
		}
	}
	return allowed
}

func (g *Gate) check(r *http.Request) bool {
	token := r.URL.Query().Get(common.FrameNonceParam)
	if token == "" {
		return false
	}

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return false
	}

	result := g.verifier.Verify(r.Context(), userID, token, g.action)
	if result.Valid() {
		g.logger.Debug(r.Context(), "frame nonce accepted", "user_id", userID, "result", result.String())
	}
	return result.Valid()
}

// Middleware runs the gate before next. Allowed requests have the
// X-Frame-Options header suppressed and are marked as iframe requests.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, state := WithState(r.Context())
		r = r.WithContext(ctx)

		if g.IsFramingAllowed(r) {
			state.SuppressFrameOptions()
		}

		next.ServeHTTP(w, r)
	})
}

// SendFrameOptions sets X-Frame-Options: SAMEORIGIN unless the gate
// suppressed it for this request.
func SendFrameOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := StateFrom(r.Context()); s == nil || !s.FrameOptionsSuppressed() {
			w.Header().Set(HeaderFrameOptions, frameOptionsValue)
		}
		next.ServeHTTP(w, r)
	})
}

// BodyClass appends the is-iframed admin body class for iframe requests.
func BodyClass(ctx context.Context, classes string) string {
	if IsIframeRequest(ctx) {
		classes += iframedBodyClass
	}
	return classes
}
