package frame

import (
	"context"
	"sync"
)

// RequestState collects what the gate decided for one request. All setters
// are idempotent.
type RequestState struct {
	mu                   sync.Mutex
	frameOptionsDisabled bool
	iframe               bool

	checked bool
	allowed bool
}

// SuppressFrameOptions stops SendFrameOptions from writing X-Frame-Options
// for the rest of the request.
func (s *RequestState) SuppressFrameOptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameOptionsDisabled = true
}

// FrameOptionsSuppressed reports whether SuppressFrameOptions was called.
func (s *RequestState) FrameOptionsSuppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameOptionsDisabled
}

// MarkIframeRequest flags the request as coming from the trusted iframe.
func (s *RequestState) MarkIframeRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iframe = true
}

// IsIframeRequest reports whether the request was marked as an iframe request.
func (s *RequestState) IsIframeRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iframe
}

func (s *RequestState) decision() (allowed, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allowed, s.checked
}

func (s *RequestState) decide(allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = true
	s.allowed = allowed
}

type stateKey struct{}

// WithState returns ctx carrying a RequestState, reusing an existing one.
func WithState(ctx context.Context) (context.Context, *RequestState) {
	if s := StateFrom(ctx); s != nil {
		return ctx, s
	}
	s := &RequestState{}
	return context.WithValue(ctx, stateKey{}, s), s
}

// StateFrom returns the RequestState stored in ctx, or nil.
func StateFrom(ctx context.Context) *RequestState {
	s, _ := ctx.Value(stateKey{}).(*RequestState)
	return s
}

// IsIframeRequest reports whether the gate accepted the request's frame nonce.
func IsIframeRequest(ctx context.Context) bool {
	s := StateFrom(ctx)
	return s != nil && s.IsIframeRequest()
}
