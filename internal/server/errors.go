package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/inflight"
)

// ErrValidation indicates a malformed gateway request
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorResponse is the JSON body of every failed gateway call.
type ErrorResponse struct {
	Error    string              `json:"error"`
	Kind     string              `json:"kind,omitempty"`
	Fields   map[string][]string `json:"fields,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var apiErr *api.Error
	var valErr *ErrValidation
	switch {
	case errors.Is(err, inflight.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		switch apiErr.Kind {
		case api.KindValidation:
			return http.StatusBadRequest
		case api.KindUnauthorized:
			return http.StatusUnauthorized
		case api.KindForbidden:
			return http.StatusForbidden
		case api.KindNotFound:
			return http.StatusNotFound
		case api.KindTransport, api.KindServer:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// toResponse builds the JSON body for err.
func toResponse(err error) ErrorResponse {
	var apiErr *api.Error
	var valErr *ErrValidation
	switch {
	case errors.As(err, &apiErr):
		resp := ErrorResponse{
			Error:  apiErr.Message,
			Kind:   apiErr.Kind.String(),
			Fields: apiErr.Fields,
			Detail: apiErr.Detail,
		}
		if apiErr.Kind == api.KindTransport {
			resp.Error = "could not reach the server, please try again"
		}
		if apiErr.Kind == api.KindUnauthorized {
			resp.Redirect = string(guard.Login)
		}
		return resp
	case errors.As(err, &valErr):
		return ErrorResponse{
			Error:  valErr.Message,
			Kind:   api.KindValidation.String(),
			Fields: map[string][]string{valErr.Field: {valErr.Message}},
		}
	default:
		return ErrorResponse{Error: err.Error()}
	}
}
