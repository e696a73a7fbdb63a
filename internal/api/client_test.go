package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/api", StaticToken(token), nil)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("not-a-url", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API base URL")
}

func TestClient_AttachesHeaders(t *testing.T) {
	var got http.Header
	var path string
	client := newTestClient(t, "abc123", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		path = r.URL.Path
		writeJSON(w, http.StatusOK, []types.Job{})
	})

	_, err := client.ListJobs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/jobs/", path)
	assert.Equal(t, "Token abc123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
	_, err = uuid.Parse(got.Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	var auth string
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []types.Job{})
	})

	_, err := client.PublicJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		kind        Kind
		message     string
		detail      string
	}{
		{
			name: "field validation", status: 400, contentType: "application/json",
			body: `{"email": ["Enter a valid email address."], "username": ["A user with that username already exists."]}`,
			kind: KindValidation, message: "email: Enter a valid email address.",
		},
		{
			name: "non field errors first", status: 400, contentType: "application/json",
			body: `{"non_field_errors": ["Unable to log in with provided credentials."], "password": ["Too short."]}`,
			kind: KindValidation, message: "Unable to log in with provided credentials.",
		},
		{
			name: "error payload", status: 400, contentType: "application/json",
			body: `{"error": "Only job posters can analyze resumes"}`,
			kind: KindValidation, message: "Only job posters can analyze resumes",
		},
		{
			name: "unauthorized", status: 401, contentType: "application/json",
			body: `{"detail": "Invalid token."}`,
			kind: KindUnauthorized, message: "Invalid token.",
		},
		{
			name: "unauthorized without body", status: 401,
			kind: KindUnauthorized, message: "session expired, please log in again",
		},
		{
			name: "forbidden keeps backend message", status: 403, contentType: "application/json",
			body: `{"error": "Permission denied"}`,
			kind: KindForbidden, message: "Permission denied",
		},
		{
			name: "forbidden without body", status: 403,
			kind: KindForbidden, message: "permission denied",
		},
		{
			name: "not found", status: 404, contentType: "application/json",
			body: `{"error": "Job not found"}`,
			kind: KindNotFound, message: "Job not found",
		},
		{
			name: "html error page", status: 502, contentType: "text/html; charset=utf-8",
			body: "<html><head><title>502 Bad\n Gateway</title></head><body>nginx</body></html>",
			kind: KindServer, message: "server error (502)", detail: "502 Bad Gateway",
		},
		{
			name: "server error with message", status: 500, contentType: "application/json",
			body: `{"error": "Failed to analyze resume"}`,
			kind: KindServer, message: "Failed to analyze resume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "tok", func(w http.ResponseWriter, _ *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.GetJob(context.Background(), 7)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.detail, apiErr.Detail)
			assert.Equal(t, "jobs/7/", apiErr.Path)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	client, err := New(base, nil, nil)
	require.NoError(t, err)

	_, err = client.MyApplications(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_UnreadableSuccessBody(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "<html>oops</html>")
	})

	_, err := client.UnreadCount(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindServer))
	assert.Contains(t, err.Error(), "server error (200)")
}

func TestLogin_ValidatesBeforeNetwork(t *testing.T) {
	called := false
	client := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Login(context.Background(), types.LoginRequest{Username: "alice"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.Contains(t, apiErr.Fields, "password")
	assert.False(t, called)
}

func TestLogin_Success(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/accounts/login/", r.URL.Path)

		var body types.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body.Username)

		writeJSON(w, http.StatusOK, map[string]string{"token": "t1", "username": "alice", "email": "a@x.io"})
	})

	sess, err := client.Login(context.Background(), types.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, types.Session{Username: "alice", Email: "a@x.io", Token: "t1"}, sess)
}

func TestPasswordResetConfirm_MismatchUsesBackendFieldName(t *testing.T) {
	client := newTestClient(t, "", func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request")
	})

	_, err := client.PasswordResetConfirm(context.Background(), types.PasswordResetConfirmRequest{
		UID: "MQ", Token: "tok", NewPassword: "longenough", ConfirmPassword: "different1",
	})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"Passwords do not match."}, apiErr.Fields["confirm_password"])
}

func TestLogout_UsesGivenToken(t *testing.T) {
	var auth string
	client := newTestClient(t, "current", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Logout(context.Background(), "old-token"))
	assert.Equal(t, "Token old-token", auth)
}

func TestUpdateApplicationStatus_RejectsUnknownStatus(t *testing.T) {
	client := newTestClient(t, "tok", func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request")
	})

	_, err := client.UpdateApplicationStatus(context.Background(), 3, "hired")
	assert.True(t, IsKind(err, KindValidation))
}

func TestDownloadResume_UsesContentDisposition(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="jane_doe.pdf"`)
		_, _ = io.WriteString(w, "%PDF-1.4")
	})

	d, err := client.DownloadResume(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "jane_doe.pdf", d.Name)
	assert.Equal(t, "application/pdf", d.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), d.Data)
}

func TestNotifications_Query(t *testing.T) {
	var rawQuery string
	client := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []types.Notification{{ID: 1, Title: "New application"}})
	})

	list, err := client.Notifications(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "unread_only=true", rawQuery)
	require.Len(t, list, 1)
	assert.Equal(t, "New application", list[0].Title)
}

func TestUnreadCount(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications/count/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]int{"unread_count": 4})
	})

	n, err := client.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestReadResume(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "cv.PDF")
	require.NoError(t, os.WriteFile(good, []byte("%PDF"), 0o600))
	u, err := ReadResume(good)
	require.NoError(t, err)
	assert.Equal(t, "cv.PDF", u.Name)

	txt := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	_, err = ReadResume(txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDF, DOC, or DOCX")

	big := filepath.Join(dir, "big.docx")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("x", MaxResumeSize+1)), 0o600))
	_, err = ReadResume(big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5MB")
}

func TestActivity_FetchesBoth(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/jobs/my-applications/":
			writeJSON(w, http.StatusOK, []types.Application{{ID: 1, Status: types.StatusPending}})
		case "/api/jobs/my-jobs/":
			writeJSON(w, http.StatusOK, []types.Job{{ID: 2}, {ID: 3}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	a, err := client.Activity(context.Background())
	require.NoError(t, err)
	assert.Len(t, a.Applications, 1)
	assert.Len(t, a.Jobs, 2)
}

func TestActivity_PropagatesFailure(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/jobs/my-jobs/" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, []types.Application{})
	})

	_, err := client.Activity(context.Background())
	assert.True(t, IsUnauthorized(err))
}
