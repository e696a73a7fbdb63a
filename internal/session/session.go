// Package session owns the client's authentication state: the single active
// session, its persistence under the "auth" key, and its lifecycle
// (restore, active, cleared).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/jobboard/internal/schemas"
	"github.com/jonathan/jobboard/internal/storage"
	"github.com/jonathan/jobboard/internal/types"
	"go.uber.org/zap"
)

// AuthKey is the storage key of the persisted session record.
const AuthKey = "auth"

// DefaultLogoutTimeout bounds the server-side invalidation call made on logout.
const DefaultLogoutTimeout = 5 * time.Second

// ErrNoToken is returned by Login when the session carries no token.
var ErrNoToken = errors.New("session has no token")

// State is the authentication state of the client.
type State int

const (
	// Anonymous means no session is active.
	Anonymous State = iota
	// Authenticated means a session with a token is active.
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Invalidator tells the backend to drop a token.
type Invalidator interface {
	Logout(ctx context.Context, token string) error
}

// Store is the single source of truth for who is logged in.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current *types.Session

	storage       storage.Store
	invalidator   Invalidator
	logger        *zap.Logger
	logoutTimeout time.Duration

	obsMu     sync.Mutex
	observers map[int]func(State)
	nextObs   int
}

// NewStore creates an empty (anonymous) store. invalidator may be nil, in
// which case logout is purely local.
func NewStore(st storage.Store, invalidator Invalidator, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage:       st,
		invalidator:   invalidator,
		logger:        logger,
		logoutTimeout: DefaultLogoutTimeout,
		observers:     make(map[int]func(State)),
	}
}

// SetLogoutTimeout overrides the bound on the server-side logout call.
func (s *Store) SetLogoutTimeout(d time.Duration) {
	s.mu.Lock()
	s.logoutTimeout = d
	s.mu.Unlock()
}

// Restore loads the persisted session. A missing, unreadable, corrupt or
// schema-invalid record leaves the store anonymous; no error is returned.
func (s *Store) Restore() State {
	sess, ok := s.load()

	s.mu.Lock()
	if ok {
		s.current = &sess
	} else {
		s.current = nil
	}
	s.mu.Unlock()

	state := s.State()
	s.notify(state)
	return state
}

func (s *Store) load() (types.Session, bool) {
	data, err := s.storage.Get(AuthKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("ignoring unreadable session record", zap.Error(err))
		}
		return types.Session{}, false
	}

	if err := schemas.ValidateAuthRecord(data); err != nil {
		s.logger.Debug("ignoring malformed session record", zap.Error(err))
		return types.Session{}, false
	}

	var sess types.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Debug("ignoring undecodable session record", zap.Error(err))
		return types.Session{}, false
	}
	if !sess.Valid() {
		return types.Session{}, false
	}
	return sess, true
}

// Login makes sess the active session and persists it. A persistence
// failure is logged; the in-memory session stays active.
func (s *Store) Login(sess types.Session) error {
	if !sess.Valid() {
		return ErrNoToken
	}

	s.mu.Lock()
	active := sess
	s.current = &active
	s.mu.Unlock()

	if data, err := json.Marshal(sess); err != nil {
		s.logger.Warn("failed to encode session", zap.Error(err))
	} else if err := s.storage.Put(AuthKey, data); err != nil {
		s.logger.Warn("failed to persist session; it will not survive a restart", zap.Error(err))
	}

	s.logger.Debug("session started", zap.String("username", sess.Username))
	s.notify(Authenticated)
	return nil
}

// Logout clears the active session and the persisted record, then asks the
// backend to invalidate the token. Backend failures are logged and never
// block the local logout.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	timeout := s.logoutTimeout
	s.mu.Unlock()

	if err := s.storage.Delete(AuthKey); err != nil {
		s.logger.Warn("failed to delete session record", zap.Error(err))
	}
	s.notify(Anonymous)

	if prev == nil || s.invalidator == nil {
		return
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := s.invalidator.Logout(callCtx, prev.Token); err != nil {
		s.logger.Info("server-side logout failed; local session cleared anyway", zap.Error(err))
	}
}

// Current returns a copy of the active session.
func (s *Store) Current() (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return types.Session{}, false
	}
	return *s.current, true
}

// State reports whether a session is active.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Anonymous
	}
	return Authenticated
}

// Token returns the active token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Subscribe registers fn to be called after every state change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(state State) {
	s.obsMu.Lock()
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
