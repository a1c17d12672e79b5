// Package httpserver exposes the admin editor page behind the frame gate
// and the endpoint the partner uses to obtain frame nonces.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/framegate/internal/logging"
	"github.com/dmitrijs2005/framegate/internal/server/config"
	"github.com/dmitrijs2005/framegate/internal/server/frame"
)

// Issuer mints nonces for a local user.
type Issuer interface {
	Create(ctx context.Context, userID int64, action string) (string, error)
}

// Connector stores and removes the partner connection of a local user.
type Connector interface {
	Connect(ctx context.Context, userID int64, remoteUserID int64, secret []byte) error
	Disconnect(ctx context.Context, userID int64) error
}

// Server serves the gated editor page, the nonce endpoint for signed-in
// users and the connection endpoint for the partner.
type Server struct {
	address       string
	logger        logging.Logger
	gate          *frame.Gate
	issuer        Issuer
	connector     Connector
	installID     string
	action        string
	jwtSecret     []byte
	partnerSecret []byte
}

// NewServer builds a Server from cfg. Sessions are checked with
// cfg.SecretKey, partner calls with cfg.ConnectionSecret.
func NewServer(cfg *config.Config, l logging.Logger, gate *frame.Gate, issuer Issuer, connector Connector) *Server {
	return &Server{
		address:       cfg.EndpointAddrHTTP,
		logger:        l.With("module", "http_server"),
		gate:          gate,
		issuer:        issuer,
		connector:     connector,
		installID:     cfg.InstallID,
		action:        frame.Action(cfg.InstallID),
		jwtSecret:     []byte(cfg.SecretKey),
		partnerSecret: []byte(cfg.ConnectionSecret),
	}
}

// Handler returns the routed handler with the common middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /editor", s.gate.Middleware(frame.SendFrameOptions(http.HandlerFunc(s.handleEditor))))
	mux.HandleFunc("POST /api/frame-nonce", s.handleIssueNonce)
	mux.HandleFunc("PUT /api/connection", s.handleConnect)
	mux.HandleFunc("DELETE /api/connection", s.handleDisconnect)

	return s.withRequestID(s.withSession(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
