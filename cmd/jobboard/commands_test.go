package main

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonathan/jobboard/internal/session"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_PersistsSession(t *testing.T) {
	dir := isolate(t)
	b := newFakeBackend(t)

	out, err := runCLI(t, "correct-horse\n", "--api-url", b.apiURL(), "login", "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")

	_, err = os.Stat(filepath.Join(dir, session.AuthKey+".json"))
	assert.NoError(t, err, "auth record should be written")

	out, err = runCLI(t, "", "--api-url", b.apiURL(), "whoami", "-o", "json")
	require.NoError(t, err)
	var who WhoamiResult
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	assert.Equal(t, "authenticated", who.State)
	assert.Equal(t, "alice", who.Username)
	assert.Equal(t, "alice@example.com", who.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)

	_, err := runCLI(t, "wrong\n", "--api-url", b.apiURL(), "login", "-u", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")

	out, err := runCLI(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLogin_RequiresUsername(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "pw\n", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestProtectedCommands_RequireLogin(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{
		{"home"},
		{"jobs", "list"},
		{"applications", "list"},
		{"notifications", "list"},
		{"bulk-analyze", "--job", "1"},
		{"profile"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := runCLI(t, "", args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "login required")
		})
	}
}

func TestLoginRoute_RedirectAuthenticated(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b, "alice")

	t.Setenv("JOBBOARD_REDIRECT_AUTHENTICATED", "true")
	_, err := runCLI(t, "correct-horse\n", "--api-url", b.apiURL(), "login", "-u", "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already logged in as alice")
}

func TestJobsList_SendsToken(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	b.handle("GET /api/jobs/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []types.Job{
			{ID: 1, Title: "Backend Engineer", Company: "Acme", Location: "Remote", JobType: types.JobTypeFullTime},
		})
	})
	login(t, b, "alice")

	out, err := runCLI(t, "", "--api-url", b.apiURL(), "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "Acme")
	assert.Equal(t, "Token tok-123", b.lastAuthorization())
}

func TestJobsCreate_ValidatesBeforeSending(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	called := false
	b.handle("POST /api/jobs/", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		writeJSON(w, http.StatusCreated, types.Job{ID: 9})
	})
	login(t, b, "alice")

	_, err := runCLI(t, "", "--api-url", b.apiURL(), "jobs", "create", "--title", "Engineer", "--type", "gig")
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "job_type")
}

func TestJobsUpdate_ThenRefreshList(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	salary := "$120k"
	var (
		mu   sync.Mutex
		job  = types.Job{ID: 7, Title: "Engineer", Company: "Acme", Location: "Remote", JobType: types.JobTypeFullTime, Salary: &salary, Description: "Build things"}
		sent types.JobInput
	)
	b.handle("GET /api/jobs/7/", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, job)
	})
	b.handle("PUT /api/jobs/7/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent)) {
			return
		}
		job.Title = sent.Title
		job.MaxApplicants = sent.MaxApplicants
		writeJSON(w, http.StatusOK, job)
	})
	b.handle("GET /api/jobs/", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, []types.Job{job})
	})
	login(t, b, "alice")

	out, err := runCLI(t, "", "--api-url", b.apiURL(), "jobs", "update", "7", "--title", "Staff Engineer", "--max-applicants", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated job 7: Staff Engineer at Acme")

	mu.Lock()
	assert.Equal(t, "Staff Engineer", sent.Title)
	assert.Equal(t, "Acme", sent.Company, "unchanged fields are sent back as they were")
	assert.Equal(t, "$120k", sent.Salary)
	assert.Equal(t, types.JobTypeFullTime, sent.JobType)
	require.NotNil(t, sent.MaxApplicants)
	assert.Equal(t, 5, *sent.MaxApplicants)
	mu.Unlock()

	out, err = runCLI(t, "", "--api-url", b.apiURL(), "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Staff Engineer")
}

func TestJobsUpdate_RejectsBadInput(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	var puts atomic.Int32
	b.handle("GET /api/jobs/7/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, types.Job{ID: 7, Title: "Engineer", Company: "Acme", Location: "Remote", JobType: types.JobTypeFullTime, Description: "Build things"})
	})
	b.handle("PUT /api/jobs/7/", func(w http.ResponseWriter, _ *http.Request) {
		puts.Add(1)
		writeJSON(w, http.StatusOK, types.Job{ID: 7})
	})
	login(t, b, "alice")

	_, err := runCLI(t, "", "--api-url", b.apiURL(), "jobs", "update", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")

	_, err = runCLI(t, "", "--api-url", b.apiURL(), "jobs", "update", "7", "--type", "gig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_type")
	assert.Equal(t, int32(0), puts.Load())
}

func TestUnauthorized_KeepsSession(t *testing.T) {
	dir := isolate(t)
	b := newFakeBackend(t)
	b.handle("GET /api/jobs/my-applications/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
	})
	login(t, b, "alice")

	_, err := runCLI(t, "", "--api-url", b.apiURL(), "applications", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")
	assert.Contains(t, err.Error(), "Invalid token.")

	_, statErr := os.Stat(filepath.Join(dir, session.AuthKey+".json"))
	assert.NoError(t, statErr, "auth record stays until the user logs in again")

	_, err = runCLI(t, "correct-horse\n", "--api-url", b.apiURL(), "login", "-u", "alice")
	require.NoError(t, err, "a fresh login replaces the rejected token")
}

func TestJobsDelete_ForbiddenKeepsSession(t *testing.T) {
	dir := isolate(t)
	b := newFakeBackend(t)
	b.handle("DELETE /api/jobs/7/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Permission denied"})
	})
	login(t, b, "alice")

	_, err := runCLI(t, "", "--api-url", b.apiURL(), "jobs", "delete", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Permission denied")
	assert.NotContains(t, err.Error(), "session expired")

	_, statErr := os.Stat(filepath.Join(dir, session.AuthKey+".json"))
	assert.NoError(t, statErr)

	out, err := runCLI(t, "", "--api-url", b.apiURL(), "whoami", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "authenticated"`)
}

func TestRegister_FieldErrors(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	b.handle("POST /api/accounts/register/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"username": {"A user with that username already exists."},
		})
	})

	_, err := runCLI(t, "long-password\nlong-password\n",
		"--api-url", b.apiURL(), "register", "-u", "alice", "--email", "alice@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username: A user with that username already exists.")
}

func TestRegister_PasswordMismatch(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)

	_, err := runCLI(t, "long-password\nother-password\n",
		"--api-url", b.apiURL(), "register", "-u", "alice", "--email", "alice@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}

func TestLogout_BackendUnreachable(t *testing.T) {
	dir := isolate(t)
	b := newFakeBackend(t)
	login(t, b, "alice")
	b.Close()

	out, err := runCLI(t, "", "--api-url", b.apiURL(), "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out alice")

	_, statErr := os.Stat(filepath.Join(dir, session.AuthKey+".json"))
	assert.True(t, os.IsNotExist(statErr))

	out, err = runCLI(t, "", "whoami", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "anonymous"`)
}

func TestPasswordReset_PrintsDebugLink(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	b.handle("POST /api/accounts/password-reset/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "alice@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Password reset email sent.",
			"email_sent":  false,
			"email_error": "smtp unavailable",
			"debug_info":  map[string]string{"uid": "MQ", "token": "abc-def", "recipient": "alice@example.com"},
		})
	})

	out, err := runCLI(t, "", "--api-url", b.apiURL(), "password-reset", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Password reset email sent.")
	assert.Contains(t, out, "smtp unavailable")
	assert.Contains(t, out, "--uid MQ --token abc-def")
}

func TestPasswordResetConfirm(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	b.handle("POST /api/accounts/password-reset-confirm/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "MQ", body["uid"])
		assert.Equal(t, "new-password-1", body["new_password"])
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset.", "username": "alice"})
	})

	out, err := runCLI(t, "new-password-1\nnew-password-1\n",
		"--api-url", b.apiURL(), "password-reset", "confirm", "--uid", "MQ", "--token", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Password has been reset.")
	assert.Contains(t, out, "jobboard login -u alice")
}

func TestApplicationsUpload(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	var gotName string
	b.handle("POST /api/jobs/applications/4/upload-resume/", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("resume")
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = file.Close() }()
		_, _ = io.Copy(io.Discard, file)
		gotName = header.Filename
		writeJSON(w, http.StatusOK, types.Application{ID: 4, Status: types.StatusPending})
	})
	login(t, b, "alice")

	path := writeResume(t, t.TempDir(), "cv.pdf")
	out, err := runCLI(t, "", "--api-url", b.apiURL(), "applications", "upload", "4", path)
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", gotName)
	assert.Contains(t, out, "Uploaded cv.pdf to application 4")
}

func TestApplicationsStatus_RejectsUnknownStatus(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b, "alice")

	_, err := runCLI(t, "", "--api-url", b.apiURL(), "applications", "status", "4", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestProfileSet_MergesFields(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b, "alice")

	out, err := runCLI(t, "", "--api-url", b.apiURL(), "-o", "json",
		"profile", "set", "--bio", "Builds APIs", "--skills", "Go, SQL,,")
	require.NoError(t, err)

	var p types.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "Builds APIs", p.Bio)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Equal(t, types.DefaultProfile().Phone, p.Phone)
}

func TestProfileSet_NothingToChange(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b, "alice")

	_, err := runCLI(t, "", "--api-url", b.apiURL(), "profile", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}

func TestProfile_ShowsActivity(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	b.handle("GET /api/jobs/my-applications/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []types.Application{
			{ID: 1, Status: types.StatusPending},
			{ID: 2, Status: types.StatusAccepted},
		})
	})
	b.handle("GET /api/jobs/my-jobs/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []types.Job{{ID: 3}})
	})
	login(t, b, "alice")

	out, err := runCLI(t, "", "--api-url", b.apiURL(), "-o", "json", "profile")
	require.NoError(t, err)

	var result ProfileResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, 2, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.Accepted)
	assert.Len(t, result.Jobs, 1)
}

func TestOutputFormat_Invalid(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "", "-o", "xml", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestOutputYAML(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "", "-o", "yaml", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "state: anonymous")
}
