package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/jobboard/internal/storage"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvalidator struct {
	mu     sync.Mutex
	tokens []string
	err    error
	block  bool
}

func (f *fakeInvalidator) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func newTestStore(t *testing.T, inv Invalidator) (*Store, *storage.FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFileStore(dir, nil)
	require.NoError(t, err)
	return NewStore(fs, inv, zap.NewNop()), fs, dir
}

func TestRestore_WellFormedRecord(t *testing.T) {
	store, fs, _ := newTestStore(t, nil)
	require.NoError(t, fs.Put(AuthKey, []byte(`{"token":"T1","username":"alice","email":"alice@example.com"}`)))

	state := store.Restore()

	assert.Equal(t, Authenticated, state)
	sess, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, types.Session{Username: "alice", Email: "alice@example.com", Token: "T1"}, sess)
	assert.Equal(t, "T1", store.Token())
}

func TestRestore_CorruptJSON(t *testing.T) {
	store, _, dir := newTestStore(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte(`{"token": "T1", `), 0o600))

	assert.NotPanics(t, func() {
		assert.Equal(t, Anonymous, store.Restore())
	})
	_, ok := store.Current()
	assert.False(t, ok)
	assert.Equal(t, "", store.Token())
}

func TestRestore_SchemaInvalid(t *testing.T) {
	store, fs, _ := newTestStore(t, nil)
	require.NoError(t, fs.Put(AuthKey, []byte(`{"token":"","username":"alice"}`)))

	assert.Equal(t, Anonymous, store.Restore())
}

func TestRestore_Missing(t *testing.T) {
	store, _, _ := newTestStore(t, nil)
	assert.Equal(t, Anonymous, store.Restore())
}

func TestRestore_WrongSealingKey(t *testing.T) {
	dir := t.TempDir()
	sealed, err := storage.NewFileStore(dir, storage.NewSealer("one"))
	require.NoError(t, err)
	require.NoError(t, NewStore(sealed, nil, nil).Login(types.Session{Username: "alice", Token: "T1"}))

	other, err := storage.NewFileStore(dir, storage.NewSealer("two"))
	require.NoError(t, err)
	assert.Equal(t, Anonymous, NewStore(other, nil, nil).Restore())
}

func TestLogin_PersistsForFreshRestore(t *testing.T) {
	store, fs, _ := newTestStore(t, nil)

	require.NoError(t, store.Login(types.Session{Username: "bob", Email: "bob@example.com", Token: "T2"}))
	assert.Equal(t, Authenticated, store.State())

	fresh := NewStore(fs, nil, zap.NewNop())
	assert.Equal(t, Authenticated, fresh.Restore())
	sess, _ := fresh.Current()
	assert.Equal(t, "bob", sess.Username)
}

func TestLogin_RequiresToken(t *testing.T) {
	store, _, _ := newTestStore(t, nil)

	err := store.Login(types.Session{Username: "bob"})
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, Anonymous, store.State())
}

func TestLogout_NetworkUnreachable(t *testing.T) {
	inv := &fakeInvalidator{err: errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")}
	store, fs, _ := newTestStore(t, inv)
	require.NoError(t, store.Login(types.Session{Username: "alice", Token: "T"}))

	store.Logout(context.Background())

	assert.Equal(t, Anonymous, store.State())
	_, err := fs.Get(AuthKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, []string{"T"}, inv.tokens)
}

func TestLogout_HungBackendIsBounded(t *testing.T) {
	inv := &fakeInvalidator{block: true}
	store, _, _ := newTestStore(t, inv)
	store.SetLogoutTimeout(20 * time.Millisecond)
	require.NoError(t, store.Login(types.Session{Username: "alice", Token: "T"}))

	done := make(chan struct{})
	go func() {
		store.Logout(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logout blocked on the backend call")
	}
	assert.Equal(t, Anonymous, store.State())
}

func TestSetLogoutTimeout_DuringLogout(t *testing.T) {
	inv := &fakeInvalidator{}
	store, _, _ := newTestStore(t, inv)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.SetLogoutTimeout(time.Duration(i+1) * time.Second)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Login(types.Session{Username: "alice", Token: "T"})
			store.Logout(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, Anonymous, store.State())
}

func TestLogout_WhenAnonymousSkipsBackend(t *testing.T) {
	inv := &fakeInvalidator{}
	store, _, _ := newTestStore(t, inv)

	store.Logout(context.Background())

	assert.Empty(t, inv.tokens)
}

func TestSubscribe_ObservesTransitions(t *testing.T) {
	store, _, _ := newTestStore(t, nil)

	var states []State
	unsubscribe := store.Subscribe(func(s State) { states = append(states, s) })

	require.NoError(t, store.Login(types.Session{Username: "alice", Token: "T"}))
	store.Logout(context.Background())
	unsubscribe()
	store.Restore()

	assert.Equal(t, []State{Authenticated, Anonymous}, states)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}

func TestProfile_RoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t, nil)

	assert.Equal(t, types.DefaultProfile(), store.LoadProfile("alice"))

	profile := types.DefaultProfile()
	profile.Bio = "Backend engineer"
	profile.Skills = []string{"go", "postgres"}
	require.NoError(t, store.SaveProfile("alice", profile))

	assert.Equal(t, profile, store.LoadProfile("alice"))
	assert.Equal(t, types.DefaultProfile(), store.LoadProfile("bob"))
}

func TestProfile_CorruptRecord(t *testing.T) {
	store, _, dir := newTestStore(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "userProfile_alice.json"), []byte(`[`), 0o600))

	assert.Equal(t, types.DefaultProfile(), store.LoadProfile("alice"))
}

func TestSaveProfile_RequiresUsername(t *testing.T) {
	store, _, _ := newTestStore(t, nil)
	assert.Error(t, store.SaveProfile("", types.DefaultProfile()))
}
