package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsession/internal/client/identity"
	"github.com/dmitrijs2005/gophsession/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	b  *fakeBackend
	id int
}

func (s *fakeSubscription) Unsubscribe() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(s.b.listeners, s.id)
}

// fakeBackend mimics identity.Client: successful calls emit the same
// events, synchronously, on the calling goroutine.
type fakeBackend struct {
	mu        sync.Mutex
	listeners map[int]identity.Listener
	nextID    int

	session *identity.Session
	// current is the session last announced to listeners.
	current *identity.Session

	getSessionErr error
	signUpResp    *identity.AuthResponse
	signUpErr     error
	signInSession *identity.Session
	signInErr     error
	signOutErr    error
	resetErr      error
	verifySession *identity.Session
	verifyErr     error
	updateErr     error

	// hang makes every call block until its context ends.
	hang    bool
	entered chan string

	calls    []string
	inFlight int
	maxPar   int

	LastSignUp     identity.SignUpParams
	LastSignInUser string
	LastResetEmail string
	LastVerify     identity.VerifyParams
	LastUpdate     identity.UserAttributes
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		listeners: map[int]identity.Listener{},
		entered:   make(chan string, 16),
	}
}

func (f *fakeBackend) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.inFlight++
	if f.inFlight > f.maxPar {
		f.maxPar = f.inFlight
	}
	hang := f.hang
	f.mu.Unlock()

	select {
	case f.entered <- name:
	default:
	}

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	// widen the window for overlapping calls
	time.Sleep(time.Millisecond)
	return nil
}

func (f *fakeBackend) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) emit(event identity.Event, s *identity.Session) {
	f.mu.Lock()
	f.current = s
	ls := make([]identity.Listener, 0, len(f.listeners))
	for i := 1; i <= f.nextID; i++ {
		if l, ok := f.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	f.mu.Unlock()

	for _, l := range ls {
		l(event, s)
	}
}

func (f *fakeBackend) OnAuthStateChange(fn identity.Listener) identity.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.listeners[f.nextID] = fn
	return &fakeSubscription{b: f, id: f.nextID}
}

func (f *fakeBackend) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeBackend) Session() *identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeBackend) GetSession(ctx context.Context) (*identity.Session, error) {
	defer f.leave()
	if err := f.enter(ctx, "GetSession"); err != nil {
		return nil, err
	}
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	f.mu.Lock()
	f.current = f.session
	f.mu.Unlock()
	return f.session, nil
}

func (f *fakeBackend) SignUp(ctx context.Context, params identity.SignUpParams) (*identity.AuthResponse, error) {
	defer f.leave()
	f.LastSignUp = params
	if err := f.enter(ctx, "SignUp"); err != nil {
		return nil, err
	}
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	if f.signUpResp.Session != nil {
		f.emit(identity.EventSignedIn, f.signUpResp.Session)
	}
	return f.signUpResp, nil
}

func (f *fakeBackend) SignInWithPassword(ctx context.Context, email, _ string) (*identity.Session, error) {
	defer f.leave()
	f.mu.Lock()
	f.LastSignInUser = email
	f.mu.Unlock()
	if err := f.enter(ctx, "SignInWithPassword"); err != nil {
		return nil, err
	}
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.emit(identity.EventSignedIn, f.signInSession)
	return f.signInSession, nil
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	defer f.leave()
	if err := f.enter(ctx, "SignOut"); err != nil {
		return err
	}
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.emit(identity.EventSignedOut, nil)
	return nil
}

func (f *fakeBackend) ResetPasswordForEmail(ctx context.Context, email string) error {
	defer f.leave()
	f.LastResetEmail = email
	if err := f.enter(ctx, "ResetPasswordForEmail"); err != nil {
		return err
	}
	return f.resetErr
}

func (f *fakeBackend) VerifyOTP(ctx context.Context, params identity.VerifyParams) (*identity.Session, error) {
	defer f.leave()
	f.LastVerify = params
	if err := f.enter(ctx, "VerifyOTP"); err != nil {
		return nil, err
	}
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	f.emit(identity.EventSignedIn, f.verifySession)
	return f.verifySession, nil
}

func (f *fakeBackend) UpdateUser(ctx context.Context, attrs identity.UserAttributes) (*identity.User, error) {
	defer f.leave()
	f.LastUpdate = attrs
	if err := f.enter(ctx, "UpdateUser"); err != nil {
		return nil, err
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u := f.verifySession.User
	f.emit(identity.EventUserUpdated, f.verifySession)
	return u, nil
}

type navCall struct {
	Kind   string
	Path   string
	Params map[string]string
}

type fakeNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *fakeNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{Kind: "replace", Path: path})
}

func (n *fakeNavigator) Push(path string, params map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{Kind: "push", Path: path, Params: params})
}

func (n *fakeNavigator) Calls() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navCall(nil), n.calls...)
}

func (n *fakeNavigator) Last() navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return navCall{}
	}
	return n.calls[len(n.calls)-1]
}

type fakeDirectory struct {
	mu    sync.Mutex
	taken map[string]bool
	err   error
	calls int
}

func (d *fakeDirectory) UsernameTaken(_ context.Context, username string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return false, d.err
	}
	return d.taken[username], nil
}

func testSession(email, username string) *identity.Session {
	return &identity.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User: &identity.User{
			ID:       "id-" + email,
			Email:    email,
			Username: username,
			Metadata: map[string]any{"username": username},
		},
	}
}

var fixedFlowID = uuid.MustParse("6f1c2f7e-1f0a-4c55-9a3b-3b7a8a1d2e4f")

type harness struct {
	m   *Manager
	be  *fakeBackend
	nav *fakeNavigator
	dir *fakeDirectory
}

func newHarness(t *testing.T, be *fakeBackend, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		be:  be,
		nav: &fakeNavigator{},
		dir: &fakeDirectory{taken: map[string]bool{}},
	}
	opts = append([]Option{WithFlowIDs(func() uuid.UUID { return fixedFlowID })}, opts...)
	h.m = NewManager(be, h.dir, h.nav, logging.Nop(), opts...)
	t.Cleanup(h.m.Close)
	return h
}

// started returns a running harness whose initial restore has completed.
func started(t *testing.T, be *fakeBackend, opts ...Option) *harness {
	t.Helper()
	h := newHarness(t, be, opts...)
	require.NoError(t, h.m.Start(context.Background()))
	h.waitFor(t, func(s State) bool { return !s.IsLoading })
	return h
}

func (h *harness) waitFor(t *testing.T, cond func(State) bool) State {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.m.State()) }, 2*time.Second, 5*time.Millisecond)
	return h.m.State()
}

// settle waits until every queued notification has been handled.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return h.m.box.len() == 0 }, 2*time.Second, time.Millisecond)
	// a command popped but still running is finished once a no-op round trips
	h.m.submit(context.Background(), "sync", func(context.Context) {})
}
