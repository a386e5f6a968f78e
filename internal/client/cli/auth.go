package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophsession/internal/client/auth"
	"github.com/dmitrijs2005/gophsession/internal/client/navigation"
	"github.com/dmitrijs2005/gophsession/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var (
	ErrNoResetFlow      = errors.New("no password reset in progress, run 'reset' first")
	ErrCodeNotVerified  = errors.New("the reset code has not been verified yet, run 'verify' first")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// readSecret reads a password and returns it as a string, wiping the
// terminal buffer.
func (a *App) readSecret(prompt string) (string, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// report prints the outcome of an operation. The state's error message is
// shown verbatim.
func (a *App) report(st auth.State, success string) error {
	if st.Error != "" {
		fmt.Fprintln(a.out, "Error:", st.Error)
		return errors.New(st.Error)
	}
	fmt.Fprintln(a.out, success)
	return nil
}

// Register opens the sign-up screen, prompts for a username, an email and
// a password twice, and creates the account.
func (a *App) Register(ctx context.Context) error {
	if a.router.Current().Path != navigation.RouteSignUp {
		a.router.Push(navigation.RouteSignUp, nil)
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("Enter password")
	if err != nil {
		return err
	}
	confirm, err := a.readSecret("Confirm password")
	if err != nil {
		return err
	}

	st := a.manager.Register(ctx, auth.Credentials{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if st.Error == "" && !st.IsAuthenticated {
		return a.report(st, "Account created. Check your email to confirm it, then log in.")
	}
	return a.report(st, "Success!")
}

// Login prompts for credentials and signs in. Routing to the home screen
// follows from the backend's SIGNED_IN notification.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("Enter password")
	if err != nil {
		return err
	}

	return a.report(a.manager.SignIn(ctx, email, password), "Login successful")
}

func (a *App) Logout(ctx context.Context) error {
	return a.report(a.manager.SignOut(ctx), "Logged out")
}

// ResetPassword opens the reset screen and emails a one-time code.
func (a *App) ResetPassword(ctx context.Context) error {
	if a.router.Current().Path != navigation.RouteResetPassword {
		a.router.Push(navigation.RouteResetPassword, nil)
	}

	email, err := getSimpleText(a.reader, "Enter the email of your account", a.out)
	if err != nil {
		return err
	}

	return a.report(a.manager.RequestPasswordReset(ctx, email), "A reset code was sent to "+email)
}

// VerifyCode checks the emailed code of the current reset flow.
func (a *App) VerifyCode(ctx context.Context) error {
	flow := a.manager.State().Flow
	if flow == nil {
		fmt.Fprintln(a.out, "Error:", ErrNoResetFlow)
		return ErrNoResetFlow
	}

	code, err := getSimpleText(a.reader, "Enter the 6-digit code sent to "+flow.Email, a.out)
	if err != nil {
		return err
	}

	return a.report(a.manager.VerifyOneTimeCode(ctx, *flow, code), "Code verified, choose a new password")
}

// UpdatePassword sets a new password for a verified reset flow.
func (a *App) UpdatePassword(ctx context.Context) error {
	st := a.manager.State()
	if st.Flow == nil {
		fmt.Fprintln(a.out, "Error:", ErrNoResetFlow)
		return ErrNoResetFlow
	}
	if !st.UpdatingPassword() {
		fmt.Fprintln(a.out, "Error:", ErrCodeNotVerified)
		return ErrCodeNotVerified
	}

	password, err := a.readSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := a.readSecret("Confirm new password")
	if err != nil {
		return err
	}
	if password != confirm {
		fmt.Fprintln(a.out, "Error:", ErrPasswordMismatch)
		return ErrPasswordMismatch
	}

	return a.report(a.manager.UpdatePassword(ctx, *st.Flow, password), "Password updated, log in with the new password")
}

func (a *App) ClearError(ctx context.Context) error {
	a.manager.ClearError(ctx)
	return nil
}

// Back returns to the previous screen.
func (a *App) Back(context.Context) error {
	if !a.router.Back() {
		fmt.Fprintln(a.out, "Nothing to go back to")
	}
	return nil
}

// Status prints the current snapshot and screen.
func (a *App) Status(context.Context) error {
	st := a.manager.State()

	fmt.Fprintf(a.out, "screen:        %s\n", a.router.Current().Path)
	fmt.Fprintf(a.out, "authenticated: %t\n", st.IsAuthenticated)
	fmt.Fprintf(a.out, "loading:       %t\n", st.IsLoading)
	if st.User != nil {
		fmt.Fprintf(a.out, "user:          %s <%s>\n", st.User.Username, st.User.Email)
	}
	if st.Session != nil && st.Session.ExpiresAt > 0 {
		fmt.Fprintf(a.out, "expires at:    %d\n", st.Session.ExpiresAt)
	}
	if st.Flow != nil {
		fmt.Fprintf(a.out, "reset flow:    %s (%s)\n", st.Flow.Email, st.Flow.Stage)
	}
	if st.Error != "" {
		fmt.Fprintf(a.out, "error:         %s\n", st.Error)
	}
	fmt.Fprintf(a.out, "version:       %d\n", st.Version)
	return nil
}

func (a *App) getStatus() string {
	s := a.router.Current().Path
	if st := a.manager.State(); st.User != nil {
		name := st.User.Username
		if name == "" {
			name = st.User.Email
		}
		s = name + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}
