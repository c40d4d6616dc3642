package handler

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/dashboard"
	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/internal/session"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultCookieName = "academic_session"
	DefaultIdleTTL    = 24 * time.Hour
)

// SourcesFunc builds the backend handles a dashboard acts through for one
// signed-in session.
type SourcesFunc func(s session.Session) dashboard.Sources

// Browser is the server-side state of one browser: its session and the
// dashboards it has opened.
type Browser struct {
	ID      string
	Session *session.Manager

	started  atomic.Bool
	lastSeen atomic.Int64

	mu     sync.Mutex
	admin  *dashboard.Admin
	client *dashboard.Client
}

func (b *Browser) touch(now time.Time) {
	b.lastSeen.Store(now.UnixNano())
}

func (b *Browser) idleSince() time.Time {
	return time.Unix(0, b.lastSeen.Load())
}

// resetViews unmounts the browser's dashboards. It is called whenever the
// signed-in account changes.
func (b *Browser) resetViews() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.admin != nil {
		b.admin.Unmount()
		b.admin = nil
	}
	if b.client != nil {
		b.client.Unmount()
		b.client = nil
	}
}

type RegistryOption func(*Registry)

func WithCookieName(name string) RegistryOption {
	return func(reg *Registry) {
		if name != "" {
			reg.cookie = name
		}
	}
}

// WithRoleCache shares resolved roles between browsers and replicas.
func WithRoleCache(cache session.Cache, ttl time.Duration) RegistryOption {
	return func(reg *Registry) {
		reg.managerOpts = append(reg.managerOpts, session.WithRoleCache(cache, ttl))
	}
}

// WithSecretStore keeps session secrets outside the process so a browser
// stays signed in across restarts and replicas.
func WithSecretStore(store session.Cache) RegistryOption {
	return func(reg *Registry) {
		reg.secrets = store
	}
}

func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(reg *Registry) {
		if ttl > 0 {
			reg.idleTTL = ttl
		}
	}
}

// Registry maps browser cookies to their state.
type Registry struct {
	backend     session.Backend
	sources     SourcesFunc
	logger      *logging.Logger
	cookie      string
	idleTTL     time.Duration
	secrets     session.Cache
	managerOpts []session.Option
	now         func() time.Time

	mu       sync.Mutex
	browsers map[string]*Browser
}

func NewRegistry(backend session.Backend, sources SourcesFunc, logger *logging.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	reg := &Registry{
		backend:  backend,
		sources:  sources,
		logger:   logger,
		cookie:   DefaultCookieName,
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
		browsers: make(map[string]*Browser),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

type browserKey struct{}

// BrowserFrom returns the browser attached by Middleware.
func BrowserFrom(ctx context.Context) (*Browser, bool) {
	b, ok := ctx.Value(browserKey{}).(*Browser)
	return b, ok
}

// Manager is the session lookup used by the route guard.
func (reg *Registry) Manager(r *http.Request) *session.Manager {
	if b, ok := BrowserFrom(r.Context()); ok {
		return b.Session
	}
	return nil
}

// Middleware attaches the caller's Browser to the request, issuing a cookie
// on first contact. Only signed-in browsers are kept: a cookie unknown to
// this process is restored from the secret store when it has a secret, and
// otherwise gets a throwaway anonymous browser.
func (reg *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := ""
		if c, err := r.Cookie(reg.cookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     reg.cookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		b := reg.lookup(ctx, id)
		b.touch(reg.now())
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, browserKey{}, b)))
	})
}

func (reg *Registry) newBrowser(id string) *Browser {
	return &Browser{
		ID:      id,
		Session: session.NewManager(reg.backend, reg.logger, reg.managerOpts...),
	}
}

func (reg *Registry) lookup(ctx context.Context, id string) *Browser {
	reg.mu.Lock()
	b, ok := reg.browsers[id]
	reg.mu.Unlock()
	if ok {
		return b
	}

	secret := reg.storedSecret(ctx, id)
	if secret == "" {
		b = reg.newBrowser(id)
		b.started.Store(true)
		b.Session.Init(ctx, "")
		return b
	}

	reg.mu.Lock()
	b, ok = reg.browsers[id]
	if !ok {
		b = reg.newBrowser(id)
		reg.browsers[id] = b
	}
	reg.mu.Unlock()

	// Concurrent requests see the restored browser as loading meanwhile.
	if b.started.CompareAndSwap(false, true) {
		if b.Session.Init(ctx, secret) != session.StateAuthenticated {
			reg.forget(ctx, b)
		}
	}
	return b
}

// forget drops b from the registry and the secret store.
func (reg *Registry) forget(ctx context.Context, b *Browser) {
	reg.mu.Lock()
	if reg.browsers[b.ID] == b {
		delete(reg.browsers, b.ID)
	}
	reg.mu.Unlock()
	if reg.secrets != nil {
		reg.secrets.Delete(ctx, secretKey(b.ID))
	}
}

func secretKey(browserID string) string {
	return "browser:" + browserID
}

func (reg *Registry) storedSecret(ctx context.Context, browserID string) string {
	if reg.secrets == nil {
		return ""
	}
	data, ok := reg.secrets.Get(ctx, secretKey(browserID))
	if !ok {
		return ""
	}
	return string(data)
}

// signedIn records a new sign-in of b and starts keeping it.
func (reg *Registry) signedIn(ctx context.Context, b *Browser, s session.Session) {
	b.resetViews()
	b.started.Store(true)

	reg.mu.Lock()
	prev, ok := reg.browsers[b.ID]
	reg.browsers[b.ID] = b
	reg.mu.Unlock()
	if ok && prev != b {
		prev.resetViews()
		prev.Session.Dispose()
	}

	if reg.secrets != nil {
		reg.secrets.Set(ctx, secretKey(b.ID), []byte(s.Secret), reg.idleTTL)
	}
}

func (reg *Registry) signedOut(ctx context.Context, b *Browser) {
	b.resetViews()
	reg.forget(ctx, b)
}

// Admin returns the browser's mounted admin dashboard, mounting it on first
// use and again after a failed fetch.
func (reg *Registry) Admin(ctx context.Context, b *Browser) (*dashboard.Admin, error) {
	s, ok := b.Session.Current()
	if !ok {
		return nil, errdefs.ErrAuthentication
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.admin == nil {
		b.admin = dashboard.NewAdmin(s.Account, reg.sources(s), reg.logger)
	}
	if !b.admin.Mounted() || b.admin.Status().Phase == dashboard.Failed {
		if err := b.admin.Mount(ctx); err != nil {
			return nil, err
		}
	}
	return b.admin, nil
}

// Client is Admin for the student dashboard.
func (reg *Registry) Client(ctx context.Context, b *Browser) (*dashboard.Client, error) {
	s, ok := b.Session.Current()
	if !ok {
		return nil, errdefs.ErrAuthentication
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		b.client = dashboard.NewClient(s.Account, reg.sources(s), reg.logger)
	}
	if !b.client.Mounted() || b.client.Status().Phase == dashboard.Failed {
		if err := b.client.Mount(ctx); err != nil {
			return nil, err
		}
	}
	return b.client, nil
}

// Sources returns the backend handles of the browser's current session.
func (reg *Registry) Sources(b *Browser) (dashboard.Sources, error) {
	s, ok := b.Session.Current()
	if !ok {
		return dashboard.Sources{}, errdefs.ErrAuthentication
	}
	return reg.sources(s), nil
}

// Sweep disposes browsers idle for longer than the idle TTL and returns how
// many were dropped.
func (reg *Registry) Sweep() int {
	cutoff := reg.now().Add(-reg.idleTTL)

	reg.mu.Lock()
	var idle []*Browser
	for id, b := range reg.browsers {
		if b.idleSince().Before(cutoff) {
			idle = append(idle, b)
			delete(reg.browsers, id)
		}
	}
	reg.mu.Unlock()

	for _, b := range idle {
		b.resetViews()
		b.Session.Dispose()
	}
	return len(idle)
}

// Run sweeps idle browsers every interval until ctx is done, then disposes
// every remaining browser.
func (reg *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			reg.closeAll()
			return
		case <-ticker.C:
			if n := reg.Sweep(); n > 0 {
				reg.logger.Info(ctx, "dropped idle browsers", zap.Int("count", n))
			}
		}
	}
}

func (reg *Registry) closeAll() {
	reg.mu.Lock()
	browsers := reg.browsers
	reg.browsers = make(map[string]*Browser)
	reg.mu.Unlock()

	for _, b := range browsers {
		b.resetViews()
		b.Session.Dispose()
	}
}
