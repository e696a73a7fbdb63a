package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind classifies a failed call.
type Kind int

// Failure kinds.
const (
	KindTransport Kind = iota + 1
	KindValidation
	KindUnauthorized
	KindNotFound
	KindServer
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// NonFieldErrors is the key the backend uses for errors not tied to one field.
const NonFieldErrors = "non_field_errors"

// Error is the single failure type returned by every Client call.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Message string
	// Fields holds field-keyed validation messages, e.g. {"email": ["..."]}.
	Fields map[string][]string
	// Detail is extra context such as the title of an HTML error page.
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("api error for %s %s: %s: %v", e.Method, e.Path, msg, e.Cause)
	}
	if e.Detail != "" {
		return fmt.Sprintf("api error for %s %s: %s: %s", e.Method, e.Path, msg, e.Detail)
	}
	return fmt.Sprintf("api error for %s %s: %s", e.Method, e.Path, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FieldMessages flattens Fields into "field: message" lines in field order,
// with non-field errors first.
func (e *Error) FieldMessages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		if k != NonFieldErrors {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []string
	out = append(out, e.Fields[NonFieldErrors]...)
	for _, k := range keys {
		for _, m := range e.Fields[k] {
			out = append(out, k+": "+m)
		}
	}
	return out
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// IsUnauthorized reports whether err means the backend no longer accepts the
// token. A 403 is KindForbidden instead: the token is fine, the action is not.
func IsUnauthorized(err error) bool {
	return IsKind(err, KindUnauthorized)
}

// classify turns a non-2xx response into an *Error.
func classify(method, path string, status int, contentType string, body []byte) *Error {
	e := &Error{Method: method, Path: path, Status: status}
	message, fields, structured := parsePayload(body)
	e.Message = message
	e.Fields = fields

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		if e.Message == "" {
			e.Message = "session expired, please log in again"
		}
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
		if e.Message == "" {
			e.Message = "permission denied"
		}
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		if e.Message == "" {
			e.Message = "not found"
		}
	case structured && status < 500:
		e.Kind = KindValidation
		if e.Message == "" {
			if msgs := e.FieldMessages(); len(msgs) > 0 {
				e.Message = msgs[0]
			} else {
				e.Message = "request rejected"
			}
		}
	default:
		e.Kind = KindServer
		if e.Message == "" {
			e.Message = fmt.Sprintf("server error (%d)", status)
		}
	}

	if !structured && strings.Contains(contentType, "html") {
		e.Detail = htmlTitle(body)
	}
	return e
}

// parsePayload extracts the message and field map from a DRF error body.
// structured is false when the body is not a JSON object.
func parsePayload(body []byte) (message string, fields map[string][]string, structured bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &raw); err != nil {
		return "", nil, false
	}

	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			if key == "error" || key == "detail" {
				message = s
				continue
			}
			if key == "message" {
				continue
			}
			fields = addField(fields, key, s)
			continue
		}

		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			for _, m := range list {
				fields = addField(fields, key, m)
			}
		}
	}
	return message, fields, true
}

func addField(fields map[string][]string, key, msg string) map[string][]string {
	if fields == nil {
		fields = make(map[string][]string)
	}
	fields[key] = append(fields[key], msg)
	return fields
}

func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
