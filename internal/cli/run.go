package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/microdiag/agent/internal/reconciler"
	"github.com/microdiag/agent/internal/scheduler"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the agent loop",
		Long: `Start the long-running agent loop.

Opens the local SQLite database (creating it if it doesn't exist), then
syncs with the backend on a fixed interval and polls for authorized remote
actions. All diagnostics keep working offline; pending changes replay when
the backend becomes reachable.

Example:
  microdiag run --config /etc/microdiag/config.yaml
  microdiag run -c config.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(rootOpts, cmd)
		},
	}

	return cmd
}

func runAgent(opts *RootOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	rec, st, cfg, err := openAgent(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database ready")

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sched := scheduler.New(rec, scheduler.Options{
		SyncInterval: cfg.SyncInterval,
		PollInterval: cfg.PollInterval,
		OnActions: func(ctx context.Context, actions []reconciler.RemoteAction) {
			// Execution is the platform shell's job; the agent loop only
			// surfaces what the backend authorized.
			for _, a := range actions {
				slog.Info("remote action authorized",
					"id", a.ID, "script", a.ScriptName, "requested_by", a.RequestedBy)
			}
		},
	})

	slog.Info("agent starting", "backend", cfg.BackendURL)
	if err := sched.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "scheduler error", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Agent started. Syncing in the background.")
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	<-ctx.Done()
	sched.Stop()

	slog.Info("agent stopped gracefully")
	return nil
}
