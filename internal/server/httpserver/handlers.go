package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/server/auth"
	"github.com/dmitrijs2005/framegate/internal/server/frame"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	contentTypeHTML   = "text/html; charset=utf-8"
)

var editorPage = template.Must(template.New("editor").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Editor</title></head>
<body class="{{.BodyClass}}">
<div id="editor" data-user="{{.UserID}}"></div>
</body>
</html>
`))

type editorView struct {
	BodyClass string
	UserID    int64
}

type nonceResponse struct {
	Nonce  string `json:"nonce"`
	Action string `json:"action"`
}

type connectRequest struct {
	RemoteUserID int64  `json:"remote_user_id"`
	Secret       string `json:"secret"`
}

const maxConnectBody = 4 << 10

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpErrorJSON(w, http.StatusUnauthorized, "login_required")
		return
	}

	view := editorView{
		BodyClass: frame.BodyClass(r.Context(), "wp-admin block-editor-page"),
		UserID:    userID,
	}

	w.Header().Set(headerContentType, contentTypeHTML)
	if err := editorPage.Execute(w, view); err != nil {
		s.requestLogger(r.Context()).Error(r.Context(), "render editor failed", "error", err)
	}
}

func (s *Server) handleIssueNonce(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpErrorJSON(w, http.StatusUnauthorized, "login_required")
		return
	}

	nonce, err := s.issuer.Create(r.Context(), userID, s.action)
	if err != nil {
		if errors.Is(err, common.ErrNotConnected) || errors.Is(err, common.ErrorNotFound) {
			httpErrorJSON(w, http.StatusConflict, "not_connected")
			return
		}
		s.requestLogger(r.Context()).Error(r.Context(), "issue frame nonce failed", "user_id", userID, "error", err)
		httpErrorJSON(w, http.StatusInternalServerError, "internal_error")
		return
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(nonceResponse{Nonce: nonce, Action: s.action}); err != nil {
		s.requestLogger(r.Context()).Error(r.Context(), "write frame nonce failed", "user_id", userID, "error", err)
	}
}

// handleConnect stores the token secret and remote user id the partner
// issued for the user named in the partner token.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.partnerUser(w, r)
	if !ok {
		return
	}

	var req connectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConnectBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		httpErrorJSON(w, http.StatusBadRequest, "bad_request")
		return
	}

	secret := []byte(req.Secret)
	defer common.WipeByteArray(secret)

	if err := s.connector.Connect(r.Context(), userID, req.RemoteUserID, secret); err != nil {
		if errors.Is(err, common.ErrNotConnected) {
			httpErrorJSON(w, http.StatusUnprocessableEntity, "invalid_connection")
			return
		}
		s.requestLogger(r.Context()).Error(r.Context(), "store connection failed", "user_id", userID, "error", err)
		httpErrorJSON(w, http.StatusInternalServerError, "internal_error")
		return
	}

	s.requestLogger(r.Context()).Info(r.Context(), "user connected", "user_id", userID, "remote_user_id", req.RemoteUserID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.partnerUser(w, r)
	if !ok {
		return
	}

	if err := s.connector.Disconnect(r.Context(), userID); err != nil {
		s.requestLogger(r.Context()).Error(r.Context(), "remove connection failed", "user_id", userID, "error", err)
		httpErrorJSON(w, http.StatusInternalServerError, "internal_error")
		return
	}

	s.requestLogger(r.Context()).Info(r.Context(), "user disconnected", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\"}"))
}

func httpErrorJSON(w http.ResponseWriter, statusCode int, errorCode string) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(fmt.Sprintf("{\"error\":\"%s\"}", errorCode)))
}
