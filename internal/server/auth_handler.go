package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jonathan/jobboard/internal/types"
	"go.uber.org/zap"
)

// AuthView is the view model of the login, registration, and reset routes.
type AuthView struct {
	View          string `json:"view"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// UserResponse identifies the logged-in user. The token never leaves the gateway.
type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *Server) handleAuthView(w http.ResponseWriter, r *http.Request) {
	view := AuthView{View: strings.TrimPrefix(r.URL.Path, "/")}
	if sess, ok := s.sessions.Current(); ok {
		view.Authenticated = true
		view.Username = sess.Username
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "Invalid request body: " + err.Error()}
	}
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sess, err := s.client.Login(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.startSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sess, err := s.client.Register(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.startSession(w, r, sess, http.StatusCreated)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, sess types.Session, status int) {
	if err := s.sessions.Login(sess); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.logger.Info("session started", zap.String("username", sess.Username))
	s.jsonResponse(w, status, UserResponse{Username: sess.Username, Email: sess.Email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(r.Context())
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "Logged out"})
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req types.PasswordResetRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp, err := s.client.PasswordReset(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req types.PasswordResetConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp, err := s.client.PasswordResetConfirm(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
