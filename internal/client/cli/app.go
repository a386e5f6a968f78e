package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/gophsession/internal/client/auth"
	"github.com/dmitrijs2005/gophsession/internal/client/navigation"
	"github.com/dmitrijs2005/gophsession/internal/logging"
)

// AuthManager is the subset of *auth.Manager the CLI drives.
type AuthManager interface {
	State() auth.State
	Subscribe() (<-chan auth.State, func())
	Register(ctx context.Context, creds auth.Credentials) auth.State
	SignIn(ctx context.Context, email, password string) auth.State
	SignOut(ctx context.Context) auth.State
	RequestPasswordReset(ctx context.Context, email string) auth.State
	VerifyOneTimeCode(ctx context.Context, flow auth.ResetFlow, code string) auth.State
	UpdatePassword(ctx context.Context, flow auth.ResetFlow, newPassword string) auth.State
	ClearError(ctx context.Context) auth.State
}

var _ AuthManager = (*auth.Manager)(nil)

type App struct {
	manager AuthManager
	router  *navigation.Router
	guard   *navigation.Guard
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(manager AuthManager, router *navigation.Router, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		manager: manager,
		router:  router,
		guard:   navigation.NewGuard(router),
		log:     log.With("module", "cli"),
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.manager.State().IsAuthenticated
}

// guardState projects an auth snapshot onto what the route guard needs.
func guardState(st auth.State) navigation.GuardState {
	return navigation.GuardState{
		IsAuthenticated:  st.IsAuthenticated,
		IsLoading:        st.IsLoading,
		UpdatingPassword: st.UpdatingPassword(),
	}
}

// StartStateWatcher applies the route guard to every published snapshot
// until ctx is done or the manager stops publishing.
func (a *App) StartStateWatcher(ctx context.Context) {
	updates, cancel := a.manager.Subscribe()
	defer cancel()

	a.applyGuard(ctx, a.manager.State())

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			a.applyGuard(ctx, st)

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) applyGuard(ctx context.Context, st auth.State) {
	if a.guard.Apply(guardState(st)) {
		a.log.Debug(ctx, "route guard redirected", "path", a.router.Current().Path, "version", st.Version)
	}
}
