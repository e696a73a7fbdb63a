// Package types provides type definitions for the records exchanged with the job board backend.
package types

// Session is the authenticated identity and token held by the client.
// It is also the shape of the persisted "auth" record.
type Session struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// Valid reports whether the session carries a usable token.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// AuthResponse is returned by the login and registration endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session converts a successful auth response into a client session.
func (r *AuthResponse) Session() Session {
	return Session{Username: r.Username, Email: r.Email, Token: r.Token}
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request to create a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// PasswordResetRequest asks the backend to email a reset link.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetResponse is the backend's answer to a reset request.
// DebugInfo is only populated when the backend runs in debug mode.
type PasswordResetResponse struct {
	Message    string          `json:"message"`
	EmailSent  bool            `json:"email_sent"`
	EmailError *string         `json:"email_error"`
	DebugInfo  *ResetDebugInfo `json:"debug_info,omitempty"`
}

// ResetDebugInfo carries the reset token for development backends.
type ResetDebugInfo struct {
	Token     string `json:"token"`
	UID       string `json:"uid"`
	Recipient string `json:"recipient"`
}

// PasswordResetConfirmRequest completes a reset with the uid/token from the email link.
type PasswordResetConfirmRequest struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// PasswordResetConfirmResponse is returned after a successful reset.
type PasswordResetConfirmResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// Validate checks the LoginRequest before it is sent.
func (r *LoginRequest) Validate() error {
	return structs().Struct(r)
}

// Validate checks the RegisterRequest before it is sent.
func (r *RegisterRequest) Validate() error {
	return structs().Struct(r)
}

// Validate checks the PasswordResetRequest before it is sent.
func (r *PasswordResetRequest) Validate() error {
	return structs().Struct(r)
}

// Validate checks the PasswordResetConfirmRequest before it is sent.
func (r *PasswordResetConfirmRequest) Validate() error {
	return structs().Struct(r)
}
