package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/logging"
	"github.com/dmitrijs2005/framegate/internal/server/auth"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

type loggerKey struct{}

// withRequestID tags every request with an id, echoed in the response and
// attached to the request-scoped logger.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		l := s.logger.With("request_id", requestID)
		ctx := context.WithValue(r.Context(), loggerKey{}, l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogger(ctx context.Context) logging.Logger {
	if l, ok := ctx.Value(loggerKey{}).(logging.Logger); ok {
		return l
	}
	return s.logger
}

// withSession resolves the signed-in user from the bearer token or the
// session cookie. Requests without a valid token continue anonymously.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.requestLogger(r.Context()).Debug(r.Context(), "ignoring session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// partnerUser authenticates a partner call by its bearer token and returns
// the local user it is made for. On failure it writes a 401 response.
func (s *Server) partnerUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		httpErrorJSON(w, http.StatusUnauthorized, "invalid_partner_token")
		return 0, false
	}

	userID, err := auth.ParsePartnerToken(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), s.installID, s.partnerSecret)
	if err != nil {
		s.requestLogger(r.Context()).Warn(r.Context(), "partner token rejected", "error", err)
		httpErrorJSON(w, http.StatusUnauthorized, "invalid_partner_token")
		return 0, false
	}
	return userID, true
}
