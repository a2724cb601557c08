package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilbhutani/followuplab/internal/auth"
)

type AuthHandler struct {
	creds  auth.Credentials
	tokens *auth.Tokens
}

func NewAuthHandler(creds auth.Credentials, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{creds: creds, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	if !h.creds.Check(req.Username, req.Password) {
		slog.WarnContext(r.Context(), "failed login", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, session, err := h.tokens.Issue(req.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: session.ExpiresAt})
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.SessionFromContext(r.Context()))
}
