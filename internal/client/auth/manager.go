package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophsession/internal/client/identity"
	"github.com/dmitrijs2005/gophsession/internal/client/navigation"
	"github.com/dmitrijs2005/gophsession/internal/client/profiles"
	"github.com/dmitrijs2005/gophsession/internal/logging"
	"github.com/google/uuid"
)

// DefaultRequestTimeout bounds every backend call made by the manager.
const DefaultRequestTimeout = 15 * time.Second

var (
	ErrAlreadyStarted = errors.New("auth manager already started")
	ErrClosed         = errors.New("auth manager closed")
)

// Backend is the identity service the manager drives. *identity.Client
// satisfies it.
type Backend interface {
	GetSession(ctx context.Context) (*identity.Session, error)
	Session() *identity.Session
	OnAuthStateChange(fn identity.Listener) identity.Subscription
	SignUp(ctx context.Context, params identity.SignUpParams) (*identity.AuthResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, params identity.VerifyParams) (*identity.Session, error)
	UpdateUser(ctx context.Context, attrs identity.UserAttributes) (*identity.User, error)
}

var _ Backend = (*identity.Client)(nil)

const (
	lifecycleNew int32 = iota
	lifecycleRunning
	lifecycleClosed
)

type Manager struct {
	backend Backend
	dir     profiles.Directory
	nav     navigation.Navigator
	log     logging.Logger

	timeout   time.Duration
	newFlowID func() uuid.UUID

	store *stateStore
	box   *mailbox

	lifecycle atomic.Int32
	ctx       context.Context
	cancel    context.CancelFunc
	sub       identity.Subscription
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Manager)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithFlowIDs overrides the generator of ResetFlow IDs.
func WithFlowIDs(fn func() uuid.UUID) Option {
	return func(m *Manager) { m.newFlowID = fn }
}

// NewManager builds a manager in the initial loading state. dir may be nil,
// in which case registration skips the username-taken check.
func NewManager(backend Backend, dir profiles.Directory, nav navigation.Navigator, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		backend:   backend,
		dir:       dir,
		nav:       nav,
		log:       log,
		timeout:   DefaultRequestTimeout,
		newFlowID: uuid.New,
		store:     newStateStore(InitialState()),
		box:       newMailbox(),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start subscribes to session changes, launches the command loop and queues
// the restore of the persisted session. The loop stops when ctx is done or
// Close is called.
func (m *Manager) Start(ctx context.Context) error {
	if !m.lifecycle.CompareAndSwap(lifecycleNew, lifecycleRunning) {
		if m.lifecycle.Load() == lifecycleClosed {
			return ErrClosed
		}
		return ErrAlreadyStarted
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.sub = m.backend.OnAuthStateChange(m.onSessionChange)

	m.box.push(command{name: "initialize", run: m.initialize})
	go m.loop()
	return nil
}

// Close tears the manager down and waits for the loop to exit. It must not
// be called from a Navigator callback.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		wasRunning := m.lifecycle.Swap(lifecycleClosed) == lifecycleRunning

		m.store.close()
		if !wasRunning {
			return
		}
		m.sub.Unsubscribe()
		m.cancel()
		<-m.done
	})
}

// State returns the current snapshot.
func (m *Manager) State() State {
	return m.store.get()
}

// Subscribe returns a channel that always yields the newest snapshot,
// starting with the current one. The channel is closed by cancel or Close.
func (m *Manager) Subscribe() (<-chan State, func()) {
	return m.store.subscribe()
}

func (m *Manager) loop() {
	defer close(m.done)
	defer func() {
		m.store.close()
		for _, c := range m.box.close() {
			if c.reply != nil {
				c.reply <- m.store.get()
			}
		}
	}()

	for {
		c, ok := m.box.pop(m.ctx)
		if !ok {
			return
		}
		m.execute(c)
	}
}

func (m *Manager) execute(c command) {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()

	if c.ctx != nil {
		stop := context.AfterFunc(c.ctx, cancel)
		defer stop()
	}

	c.run(ctx)

	if c.reply != nil {
		c.reply <- m.store.get()
	}
}

// submit queues fn and waits for its resulting snapshot. If the manager is
// not running, or ctx ends first, the current snapshot is returned.
func (m *Manager) submit(ctx context.Context, name string, fn func(ctx context.Context)) State {
	if m.lifecycle.Load() != lifecycleRunning {
		return m.store.get()
	}

	reply := make(chan State, 1)
	if !m.box.push(command{name: name, ctx: ctx, run: fn, reply: reply}) {
		return m.store.get()
	}

	select {
	case st := <-reply:
		return st
	case <-ctx.Done():
		return m.store.get()
	case <-m.done:
		return m.store.get()
	}
}

// publish applies fn unless the manager has been torn down.
func (m *Manager) publish(fn func(*State)) (State, bool) {
	if m.ctx.Err() != nil {
		return m.store.get(), false
	}
	return m.store.update(fn)
}

func (m *Manager) onSessionChange(event identity.Event, session *identity.Session) {
	m.box.push(command{
		name: string(event),
		run:  func(ctx context.Context) { m.handleSessionChange(ctx, event, session) },
	})
}

func (m *Manager) initialize(ctx context.Context) {
	session, err := m.backend.GetSession(ctx)
	if err != nil {
		m.log.Warn(ctx, "restoring session failed", "error", err)
		m.publish(func(s *State) {
			s.IsLoading = false
			s.Error = messageFor(err, msgRestoreFailed)
		})
		return
	}

	st, _ := m.publish(func(s *State) {
		s.setSession(session)
		s.IsLoading = false
	})
	m.log.Info(ctx, "session restored", "authenticated", st.IsAuthenticated)
}

// handleSessionChange replaces the session fields wholesale, whatever the
// event, then applies the navigation policy.
func (m *Manager) handleSessionChange(ctx context.Context, event identity.Event, session *identity.Session) {
	// the backend has cleared this session since; its SIGNED_OUT is queued behind
	if session != nil && m.backend.Session() == nil {
		m.log.Debug(ctx, "skipping superseded session change", "event", event)
		return
	}

	st, ok := m.publish(func(s *State) {
		s.setSession(session)
		s.IsLoading = false
	})
	if !ok {
		return
	}
	m.log.Debug(ctx, "session changed", "event", event, "authenticated", st.IsAuthenticated)

	if route, ok := routeFor(event, st); ok {
		m.nav.Replace(route)
	}
}

// routeFor decides where a notification sends the user. The reset flow
// carried in the state, not the current screen, selects the target of
// SIGNED_IN.
func routeFor(event identity.Event, st State) (string, bool) {
	switch event {
	case identity.EventSignedIn:
		if st.UpdatingPassword() {
			return navigation.RouteUpdatePassword, true
		}
		return navigation.RouteHome, true
	case identity.EventSignedOut:
		return navigation.RouteSignIn, true
	}
	return "", false
}
