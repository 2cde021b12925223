// Package cli is the command-line front end of the parking client. Every
// command opens the app, shows whatever the cache holds, then replaces it
// with the live collection once it arrives.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/parkcache/internal/app"
	"github.com/unkn0wn-root/parkcache/internal/config"
)

var errNoUser = errors.New("no user: pass --user or set PARKCACHE_USER")

type root struct {
	cfg  config.Config
	user string
	wait time.Duration
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	r := &root{}
	cmd := &cobra.Command{
		Use:           "parkcache",
		Short:         "Parking zones, bays and bookings with an offline cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if r.user != "" {
				cfg.User = r.user
			}
			r.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&r.user, "user", "u", "", "Signed-in user id (overrides PARKCACHE_USER)")
	cmd.PersistentFlags().DurationVar(&r.wait, "wait", 15*time.Second, "How long to wait for live data")

	cmd.AddCommand(
		newZonesCmd(r),
		newSpotsCmd(r),
		newSessionsCmd(r),
		newBookCmd(r),
		newEditCmd(r),
		newCancelCmd(r),
		newSeedCmd(r),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// withApp opens the app for one command and closes it afterwards, waiting
// for pending snapshot writes.
func (r *root) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) (err error) {
	ctx := cmd.Context()
	a, err := app.New(ctx, r.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err = errors.Join(err, a.Close(cctx))
	}()
	return fn(ctx, a)
}

func (r *root) userID() (string, error) {
	if r.cfg.User == "" {
		return "", errNoUser
	}
	return r.cfg.User, nil
}
