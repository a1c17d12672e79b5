package common

const (
	// SessionCookieName carries the session JWT for browser requests,
	// including the ones made from inside the partner iframe.
	SessionCookieName = "session"

	// FrameNonceParam is the query parameter holding the frame nonce.
	FrameNonceParam = "frame-nonce"

	// FrameActionPrefix prefixes the install id to scope frame nonces.
	FrameActionPrefix = "frame-"
)
