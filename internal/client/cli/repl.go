package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	VerifyCode(ctx context.Context) error
	UpdatePassword(ctx context.Context) error
	ClearError(ctx context.Context) error
	Back(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a read–eval–print loop for the gophsession CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on a. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current user and screen (from statusFn):
//
//	Not logged in:
//	  - register        create an account
//	  - login           authenticate
//	  - reset           request a password reset code
//	  - verify          enter the reset code
//	  - update-password set a new password after verify
//
//	Logged in:
//	  - logout          end the session
//
//	Always:
//	  - status | back | clear | help | exit
//
// Command errors have already been printed by the handlers and are ignored
// here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "gs %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: status, logout, back, clear, exit")
			} else {
				fmt.Fprintln(out, "Available commands: register, login, reset, verify, update-password, status, back, clear, exit")
			}

		case "register", "signup":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "verify":
			_ = a.VerifyCode(ctx)

		case "update-password", "passwd":
			_ = a.UpdatePassword(ctx)

		case "clear":
			_ = a.ClearError(ctx)

		case "back":
			_ = a.Back(ctx)

		case "s", "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if errors.Is(err, io.EOF) {
			return
		}
	}
}
