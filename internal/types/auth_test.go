//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request RegisterRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid request",
			request: RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"},
		},
		{
			name:    "missing username",
			request: RegisterRequest{Email: "alice@example.com", Password: "password123"},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name:    "invalid email",
			request: RegisterRequest{Username: "alice", Email: "not-an-email", Password: "password123"},
			wantErr: true,
			errMsg:  "email",
		},
		{
			name:    "short password",
			request: RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "short"},
			wantErr: true,
			errMsg:  "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginRequest_ValidateMethod(t *testing.T) {
	req := LoginRequest{Username: "alice", Password: "secret"}
	assert.NoError(t, req.Validate())

	req = LoginRequest{Username: "alice"}
	assert.Error(t, req.Validate())
}

func TestPasswordResetConfirmRequest_Mismatch(t *testing.T) {
	req := PasswordResetConfirmRequest{
		UID:             "MQ",
		Token:           "c2n8u1-abc",
		NewPassword:     "password123",
		ConfirmPassword: "password124",
	}

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eqfield")
}

func TestPasswordResetRequest_Validation(t *testing.T) {
	assert.NoError(t, (&PasswordResetRequest{Email: "alice@example.com"}).Validate())
	assert.Error(t, (&PasswordResetRequest{Email: ""}).Validate())
}

func TestAuthResponse_Session(t *testing.T) {
	var resp AuthResponse
	err := json.Unmarshal([]byte(`{"token":"tok","username":"alice","email":"alice@example.com"}`), &resp)
	require.NoError(t, err)

	s := resp.Session()
	assert.Equal(t, Session{Username: "alice", Email: "alice@example.com", Token: "tok"}, s)
	assert.True(t, s.Valid())
}

func TestSession_Valid(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Valid())
	assert.False(t, (&Session{Username: "alice"}).Valid())
}
