package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory job board API mounted under /api/.
type fakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	mux      *http.ServeMux
	requests []*http.Request
	authz    []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{mux: http.NewServeMux()}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r)
		b.authz = append(b.authz, r.Header.Get("Authorization"))
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)

	b.handle("POST /api/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct-horse" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Invalid credentials"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"token": "tok-123", "username": body["username"], "email": body["username"] + "@example.com",
		})
	})
	b.handle("POST /api/accounts/logout/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return b
}

func (b *fakeBackend) handle(pattern string, fn http.HandlerFunc) {
	b.mux.HandleFunc(pattern, fn)
}

func (b *fakeBackend) apiURL() string {
	return b.URL + "/api"
}

// lastAuthorization returns the Authorization header of the most recent request.
func (b *fakeBackend) lastAuthorization() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.authz) == 0 {
		return ""
	}
	return b.authz[len(b.authz)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// isolate points the client state at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("JOBBOARD_STATE_DIR", dir)
	t.Setenv("JOBBOARD_API_URL", "")
	t.Setenv("JOBBOARD_SESSION_KEY", "")
	t.Setenv("JOBBOARD_LOG_LEVEL", "error")
	t.Setenv("JOBBOARD_REDIRECT_AUTHENTICATED", "")
	t.Setenv("JOBBOARD_ALLOWED_ORIGINS", "")
	return dir
}

// runCLI executes the root command in-process with stdin and returns
// everything written to stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := execute()
	return out.String(), err
}

// resetFlags restores every flag of cmd and its children to its default so
// consecutive runs do not leak values.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// login runs "jobboard login" against b.
func login(t *testing.T, b *fakeBackend, username string) {
	t.Helper()
	out, err := runCLI(t, "correct-horse\n", "--api-url", b.apiURL(), "login", "-u", username)
	require.NoError(t, err, out)
}

func writeResume(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+name), 0o644))
	return path
}
