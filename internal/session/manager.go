// Package session tracks who is signed in and with which role, and decides
// whether a guarded route may render.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDisposed = errors.New("session manager disposed")
	// ErrProfileNotSaved comes back together with a signed-in Session.
	ErrProfileNotSaved = errors.New("user profile not saved")
)

type State int

const (
	StateInit State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is a resolved sign-in.
type Session struct {
	Account domain.Account
	Role    domain.Role
	Secret  string
}

const DefaultRoleTTL = 5 * time.Minute

// Manager is one browser's sign-in state. It is passed explicitly to
// whatever needs it; there is no package-level session.
type Manager struct {
	backend Backend
	cache   Cache
	roleTTL time.Duration
	logger  *logging.Logger

	mu       sync.RWMutex
	state    State
	session  Session
	watchers []chan State
}

type Option func(*Manager)

// WithRoleCache caches resolved roles for ttl.
func WithRoleCache(cache Cache, ttl time.Duration) Option {
	return func(m *Manager) {
		m.cache = cache
		if ttl > 0 {
			m.roleTTL = ttl
		}
	}
}

func NewManager(backend Backend, logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Manager{
		backend: backend,
		roleTTL: DefaultRoleTTL,
		logger:  logger,
		state:   StateInit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated {
		return Session{}, false
	}
	return m.session, true
}

// Watch returns a channel of state transitions. A slow reader misses
// intermediate states; the channel is closed on Dispose.
func (m *Manager) Watch() <-chan State {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan State, 16)
	if m.state == StateDisposed {
		close(ch)
		return ch
	}
	m.watchers = append(m.watchers, ch)
	return ch
}

// setLocked must be called with mu held.
func (m *Manager) setLocked(state State, s Session) {
	m.state = state
	m.session = s
	for _, ch := range m.watchers {
		select {
		case ch <- state:
		default:
		}
	}
}

func (m *Manager) transition(state State, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDisposed {
		return ErrDisposed
	}
	m.setLocked(state, s)
	return nil
}

// Init resolves an existing session secret. Any failure, including an
// empty secret, leaves the manager anonymous; it never returns an error.
func (m *Manager) Init(ctx context.Context, secret string) State {
	if err := m.transition(StateLoading, Session{}); err != nil {
		return StateDisposed
	}
	if secret == "" {
		_ = m.transition(StateAnonymous, Session{})
		return m.State()
	}

	s, err := m.resolve(ctx, secret)
	if err != nil {
		m.logger.Info(ctx, "no active session", zap.Error(err))
		_ = m.transition(StateAnonymous, Session{})
		return m.State()
	}
	_ = m.transition(StateAuthenticated, s)
	return m.State()
}

// Login opens a new session. On failure the previous state is kept.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (Session, error) {
	if m.State() == StateDisposed {
		return Session{}, ErrDisposed
	}
	if err := gateway.Validate(creds); err != nil {
		return Session{}, err
	}
	created, err := m.backend.CreateSession(ctx, creds.Email, creds.Password)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if created.Secret == "" {
		return Session{}, fmt.Errorf("login: %w: backend returned no session secret", errdefs.ErrAuthentication)
	}

	s, err := m.resolve(ctx, created.Secret)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if err := m.transition(StateAuthenticated, s); err != nil {
		return Session{}, err
	}
	m.logger.Info(ctx, "signed in", zap.String("user_id", s.Account.ID), zap.String("role", s.Role.String()))
	return s, nil
}

// Signup creates the account, signs it in and stores its client profile.
// A failed profile write does not undo the sign-in. The session is still
// returned, along with an error wrapping ErrProfileNotSaved.
func (m *Manager) Signup(ctx context.Context, input domain.NewAccount) (Session, error) {
	if m.State() == StateDisposed {
		return Session{}, ErrDisposed
	}
	if err := gateway.Validate(input); err != nil {
		return Session{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, fmt.Errorf("signup: %w", err)
	}
	userID := strings.ReplaceAll(id.String(), "-", "")

	user, err := m.backend.CreateAccount(ctx, userID, input.Email, input.Password, input.Name)
	if err != nil {
		return Session{}, fmt.Errorf("signup: %w", err)
	}
	created, err := m.backend.CreateSession(ctx, input.Email, input.Password)
	if err != nil {
		return Session{}, fmt.Errorf("signup: %w", err)
	}

	profile := domain.NewUserProfile{ID: user.ID, Name: input.Name, Email: input.Email, Role: domain.RoleClient}
	_, profileErr := m.backend.CreateProfile(ctx, created.Secret, profile)

	s := Session{
		Account: domain.Account{ID: user.ID, Name: user.Name, Email: user.Email},
		Role:    domain.RoleClient,
		Secret:  created.Secret,
	}
	if err := m.transition(StateAuthenticated, s); err != nil {
		return Session{}, err
	}
	if profileErr != nil {
		m.logger.Warn(ctx, "failed to create user profile", zap.String("user_id", user.ID), zap.Error(profileErr))
		return s, fmt.Errorf("signup: %w: %w", ErrProfileNotSaved, profileErr)
	}
	return s, nil
}

// Logout ends the backend session. Local state is cleared even when the
// backend call fails; that error is still returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	prev := m.session
	m.setLocked(StateAnonymous, Session{})
	m.mu.Unlock()

	if prev.Secret == "" {
		return nil
	}
	if m.cache != nil {
		m.cache.Delete(ctx, roleKey(prev.Account.ID))
	}
	if err := m.backend.DeleteSession(ctx, prev.Secret); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Dispose ends the manager's lifecycle and closes every watcher.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDisposed {
		return
	}
	m.setLocked(StateDisposed, Session{})
	for _, ch := range m.watchers {
		close(ch)
	}
	m.watchers = nil
}

func (m *Manager) resolve(ctx context.Context, secret string) (Session, error) {
	user, err := m.backend.GetAccount(ctx, secret)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Account: domain.Account{ID: user.ID, Name: user.Name, Email: user.Email},
		Role:    m.resolveRole(ctx, secret, user.ID),
		Secret:  secret,
	}, nil
}

func roleKey(userID string) string {
	return "role:" + userID
}

// resolveRole looks the role up in the profile collection. A failed lookup
// resolves to client, never to admin.
func (m *Manager) resolveRole(ctx context.Context, secret, userID string) domain.Role {
	if m.cache != nil {
		if data, ok := m.cache.Get(ctx, roleKey(userID)); ok && domain.Role(data).IsValid() {
			return domain.Role(data)
		}
	}

	profile, err := m.backend.GetProfile(ctx, secret, userID)
	if err != nil {
		m.logger.Warn(ctx, "could not fetch user role, defaulting to client",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return domain.RoleClient
	}
	role := domain.ToRole(profile.Role.String())
	if m.cache != nil {
		m.cache.Set(ctx, roleKey(userID), []byte(role), m.roleTTL)
	}
	return role
}
