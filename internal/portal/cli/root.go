// Package cli is the immo command line: it drives the session, the guard
// chain and the account endpoints from a terminal.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aussiebroadwan/immo/internal/portal/app"
	"github.com/aussiebroadwan/immo/internal/portal/session"
	"github.com/spf13/cobra"
)

// Opener builds the application for one invocation.
type Opener func(ctx context.Context) (*app.App, error)

// DefaultOpener reads IMMO_* configuration from the environment.
func DefaultOpener(ctx context.Context) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// Execute runs the command line against os.Args.
func Execute(ctx context.Context) error {
	return Run(ctx, DefaultOpener, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes one command. The application is opened lazily by commands
// that need it and closed before Run returns.
func Run(ctx context.Context, open Opener, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	env := &env{open: open, stderr: stderr}
	defer env.close()

	root := newRootCommand(env)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

type env struct {
	open   Opener
	stderr io.Writer
	app    *app.App
}

// load opens the application and restores the stored session.
func (e *env) load(cmd *cobra.Command) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := e.open(cmd.Context())
	if err != nil {
		return nil, err
	}
	e.app = a

	if _, err := a.Session.Restore(cmd.Context()); err != nil {
		if !errors.Is(err, session.ErrExpiredSession) && !errors.Is(err, session.ErrInvalidSession) {
			return nil, err
		}
		fmt.Fprintf(e.stderr, "note: %v\n", err)
	}
	return a, nil
}

func (e *env) close() {
	if e.app == nil {
		return
	}
	for _, r := range e.app.Router.Forced() {
		fmt.Fprintf(e.stderr, "session ended by the server, redirected to %s\n", r)
	}
	if err := e.app.Close(); err != nil {
		e.app.Logger().Warn("close application", "error", err)
	}
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "immo",
		Short: "Real estate marketplace account client",
		Long: `immo signs in to the marketplace backend, keeps the session between runs
and shows which portal views the signed-in account may enter.

Configuration is read from IMMO_* environment variables, for example
IMMO_API_BASE_URL, IMMO_STORE_DRIVER (sqlite, redis, memory) and IMMO_LOG_LEVEL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       app.BuildVersion,
	}

	root.AddCommand(
		newLoginCommand(e),
		newLogoutCommand(e),
		newRegisterCommand(e),
		newVerifyEmailCommand(e),
		newResendVerificationCommand(e),
		newForgotPasswordCommand(e),
		newChangePasswordCommand(e),
		newWhoamiCommand(e),
		newStatusCommand(e),
		newUpdateProfileCommand(e),
		newNavigateCommand(e),
		newRoutesCommand(e),
	)
	return root
}
