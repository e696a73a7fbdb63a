package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/jobboard/internal/types"
)

// Register creates an account and returns the new session.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (types.Session, error) {
	const path = "accounts/register/"
	if err := req.Validate(); err != nil {
		return types.Session{}, invalid(http.MethodPost, path, err)
	}
	var out types.AuthResponse
	if err := c.call(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return types.Session{}, err
	}
	return out.Session(), nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (types.Session, error) {
	const path = "accounts/login/"
	if err := req.Validate(); err != nil {
		return types.Session{}, invalid(http.MethodPost, path, err)
	}
	var out types.AuthResponse
	if err := c.call(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return types.Session{}, err
	}
	return out.Session(), nil
}

// Logout invalidates token on the backend. The response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "accounts/logout/", token: token})
	return err
}

// PasswordReset asks the backend to email a reset link.
func (c *Client) PasswordReset(ctx context.Context, req types.PasswordResetRequest) (*types.PasswordResetResponse, error) {
	const path = "accounts/password-reset/"
	if err := req.Validate(); err != nil {
		return nil, invalid(http.MethodPost, path, err)
	}
	var out types.PasswordResetResponse
	if err := c.call(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PasswordResetConfirm sets a new password using the uid and token from the reset link.
func (c *Client) PasswordResetConfirm(ctx context.Context, req types.PasswordResetConfirmRequest) (*types.PasswordResetConfirmResponse, error) {
	const path = "accounts/password-reset-confirm/"
	if err := req.Validate(); err != nil {
		return nil, invalid(http.MethodPost, path, err)
	}
	var out types.PasswordResetConfirmResponse
	if err := c.call(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// invalid converts a local validation failure into a KindValidation error
// without touching the network.
func invalid(method, path string, err error) *Error {
	e := &Error{Kind: KindValidation, Method: method, Path: path, Cause: err}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		e.Message = err.Error()
		return e
	}

	e.Fields = make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := snakeCase(fe.Field())
		e.Fields[field] = append(e.Fields[field], describe(fe))
	}
	e.Message = e.FieldMessages()[0]
	return e
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() != reflect.String {
			return "Ensure this value is greater than or equal to " + fe.Param() + "."
		}
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		if fe.Kind() != reflect.String {
			return "Ensure this value is less than or equal to " + fe.Param() + "."
		}
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "eqfield":
		return "Passwords do not match."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	default:
		return "Invalid value (" + fe.Tag() + ")."
	}
}

// snakeCase maps a Go field name to the backend's key, e.g. NewPassword to new_password.
func snakeCase(name string) string {
	var sb strings.Builder
	prevLower := false
	for _, r := range name {
		if unicode.IsUpper(r) {
			if prevLower {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
			prevLower = false
		} else {
			prevLower = true
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
