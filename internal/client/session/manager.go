// Package session holds the signed-in identity of the client process. It
// restores it from durable storage, keeps storage and the API client's
// credential header in sync with it, and clears it whenever the backend
// answers 401.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/client/api"
	"github.com/atinyakov/storefront/internal/client/events"
	"github.com/atinyakov/storefront/internal/client/state"
	"github.com/atinyakov/storefront/internal/client/storage"
	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/models"
)

// Status tells consumers whether a session is known to be valid.
type Status int

const (
	// StatusUnauthenticated means nobody is signed in.
	StatusUnauthenticated Status = iota
	// StatusLoading means the startup probe has not answered yet.
	StatusLoading
	// StatusAuthenticated means a session is present.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is a snapshot of the identity. An empty Token means no token.
type Session struct {
	Token  string
	User   *models.User
	Status Status
}

// ErrNoToken is returned by SignIn when a bearer backend answers without a
// token.
var ErrNoToken = errors.New("sign-in response carried no token")

// Manager owns the session. It is the only writer of the credential header.
type Manager struct {
	store     *storage.Adapter
	client    *api.Client
	creds     *api.Credentials
	bus       *events.Bus
	state     *state.Observable[Session]
	cookie    bool
	probe     bool
	log       *zap.Logger
	unsub     func()
	closeOnce sync.Once

	mu  sync.Mutex
	gen uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithStrategy selects config.StrategyBearer (default) or
// config.StrategyCookie. Under the cookie strategy the token is never stored
// and never sent as a header.
func WithStrategy(strategy string) Option {
	return func(m *Manager) {
		m.cookie = strategy == config.StrategyCookie
	}
}

// WithStartup selects config.StartupTrustLocal (default) or
// config.StartupProbe.
func WithStartup(mode string) Option {
	return func(m *Manager) {
		m.probe = mode == config.StartupProbe
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// New restores the session from store, claims the client's credential
// header and subscribes to bus.Unauthorized for the manager's lifetime.
func New(store *storage.Adapter, client *api.Client, bus *events.Bus, opts ...Option) (*Manager, error) {
	creds, err := client.ClaimCredentials()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	m := &Manager{
		store:  store,
		client: client,
		creds:  creds,
		bus:    bus,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	token, user := m.restore()
	if m.cookie {
		token = ""
		m.restoreCookies()
		creds.OnCookiesChanged(m.saveCookies)
	} else {
		creds.SetToken(token)
	}

	status := m.derive(token, user)
	if m.probe && m.shouldProbe(token) {
		status = StatusLoading
	}
	m.state = state.New(Session{Token: token, User: user, Status: status})

	m.unsub = bus.Unauthorized.Subscribe(func(events.Unauthorized) { m.clear() })
	return m, nil
}

// Session returns the current snapshot.
func (m *Manager) Session() Session {
	s := m.state.Get()
	s.User = cloneUser(s.User)
	return s
}

// Subscribe registers fn for every later change.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	return m.state.Subscribe(func(s Session) {
		s.User = cloneUser(s.User)
		fn(s)
	})
}

// SetToken replaces the token and leaves the user as it is. An empty token
// clears it.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	user := m.state.Get().User
	next := m.commit(token, user)
	m.mu.Unlock()
	m.state.Set(next)
}

// SetCredentials replaces both token and user. A nil user clears the
// profile.
func (m *Manager) SetCredentials(token string, user *models.User) {
	m.mu.Lock()
	next := m.commit(token, cloneUser(user))
	m.mu.Unlock()
	m.state.Set(next)
}

// SetUser replaces the user and leaves the token as it is.
func (m *Manager) SetUser(user *models.User) {
	m.mu.Lock()
	token := m.state.Get().Token
	next := m.commit(token, cloneUser(user))
	m.mu.Unlock()
	m.state.Set(next)
}

// Logout clears the session and broadcasts events.Unauthorized.
func (m *Manager) Logout() {
	m.clear()
	m.bus.Unauthorized.Publish(events.Unauthorized{})
}

// Start runs the startup probe when the manager was configured for it and
// blocks until it answered. It is a no-op in trust-local mode.
func (m *Manager) Start(ctx context.Context) {
	if !m.probe {
		return
	}

	m.mu.Lock()
	gen := m.gen
	token := m.state.Get().Token
	m.mu.Unlock()

	if !m.shouldProbe(token) {
		return
	}

	user, err := m.client.Me(ctx)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.log.Debug("discarding stale session probe result")
		return
	}
	if err != nil {
		m.mu.Unlock()
		m.log.Info("session probe failed, signing out", zap.Error(err))
		m.clear()
		return
	}
	next := m.commit(token, user)
	m.mu.Unlock()
	m.state.Set(next)
}

// SignIn authenticates against the backend. On failure the session is left
// as it was and the returned error carries a user-visible message.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if !m.cookie && resp.Token == "" {
		return ErrNoToken
	}

	user := resp.User()
	if user == nil {
		user = &models.User{Email: email}
	}
	m.SetCredentials(resp.Token, user)
	return nil
}

// SignUp registers an account. The session is only populated when a bearer
// backend signs the new user in right away by returning a token.
func (m *Manager) SignUp(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	resp, err := m.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if !m.cookie && resp.Token != "" {
		m.SetCredentials(resp.Token, resp.User())
	}
	return resp, nil
}

// SignOut tells the backend and clears the session regardless of the
// backend's answer.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.log.Debug("backend logout failed", zap.Error(err))
	}
	m.Logout()
}

// Close stops listening for events.Unauthorized.
func (m *Manager) Close() {
	m.closeOnce.Do(m.unsub)
}

// clear drops the session and every stored key. Repeated calls only notify
// subscribers once.
func (m *Manager) clear() {
	m.mu.Lock()
	m.gen++
	m.creds.SetToken("")
	m.creds.ClearCookies()
	for _, key := range keys(TokenSources) {
		m.store.Remove(key)
	}
	for _, key := range keys(UserSources) {
		m.store.Remove(key)
	}
	m.store.Remove(KeyEmail)
	m.store.Remove(KeyCookies)
	cur := m.state.Get()
	m.mu.Unlock()

	if cur.Token == "" && cur.User == nil && cur.Status == StatusUnauthenticated {
		return
	}
	m.state.Set(Session{Status: StatusUnauthenticated})
}

// commit synchronizes header and storage with token and user and returns
// the resulting snapshot. The caller holds m.mu.
func (m *Manager) commit(token string, user *models.User) Session {
	m.gen++
	if m.cookie {
		token = ""
	} else {
		m.syncToken(token)
	}
	m.syncUser(user)
	return Session{Token: token, User: user, Status: m.derive(token, user)}
}

func (m *Manager) syncToken(token string) {
	m.creds.SetToken(token)

	if token == "" {
		m.removePresent(keys(TokenSources))
		return
	}

	if stored, ok := Resolve(m.store, TokenSources[:1]); ok && stored == token {
		return
	}
	for _, key := range keys(TokenSources) {
		m.store.WriteRaw(key, []byte(token))
	}
}

func (m *Manager) syncUser(user *models.User) {
	if user == nil {
		m.removePresent(append(keys(UserSources), KeyEmail))
		return
	}

	encoded := encodeUser(user)
	stored, ok := Resolve(m.store, UserSources[:1])
	if !ok || !bytes.Equal(encodeUser(stored), encoded) {
		for _, key := range keys(UserSources) {
			m.store.WriteRaw(key, encoded)
		}
	}

	raw, ok := m.store.Read(KeyEmail)
	switch {
	case user.Email == "" && ok:
		m.store.Remove(KeyEmail)
	case user.Email != "" && (!ok || string(raw) != user.Email):
		m.store.WriteRaw(KeyEmail, []byte(user.Email))
	}
}

// removePresent removes every key that holds a value, parseable or not.
func (m *Manager) removePresent(names []string) {
	for _, key := range names {
		if _, ok := m.store.Read(key); ok {
			m.store.Remove(key)
		}
	}
}

// storedCookie is the persisted form of a backend session cookie.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// restoreCookies loads the cookies of an earlier process into the jar.
func (m *Manager) restoreCookies() {
	var stored []storedCookie
	if !m.store.ReadJSON(KeyCookies, &stored) {
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	m.creds.RestoreCookies(cookies)
}

// saveCookies mirrors the jar into storage after the backend changed it.
func (m *Manager) saveCookies() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cookies := m.creds.Cookies()
	if len(cookies) == 0 {
		m.removePresent([]string{KeyCookies})
		return
	}
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	m.store.WriteJSON(KeyCookies, stored)
}

// restore reads the persisted session. The client's credential helper wins
// over the storage keys.
func (m *Manager) restore() (string, *models.User) {
	token, ok := m.client.StoredCredential()
	if !ok {
		token, _ = Resolve(m.store, TokenSources)
	}
	user, _ := Resolve(m.store, UserSources)
	return token, user
}

func (m *Manager) derive(token string, user *models.User) Status {
	if m.cookie {
		if user != nil {
			return StatusAuthenticated
		}
		return StatusUnauthenticated
	}
	if token != "" {
		return StatusAuthenticated
	}
	return StatusUnauthenticated
}

// shouldProbe reports whether there is anything for the probe to verify.
// A cookie session is invisible to the client, so it is always probed.
func (m *Manager) shouldProbe(token string) bool {
	return m.cookie || token != ""
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
