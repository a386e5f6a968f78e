package cli

import (
	"context"
	"fmt"
)

// Root starts the route guard and runs the REPL until the user exits or
// ctx is done.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to gophsession CLI (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartStateWatcher(ctx)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}
