package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SyncResult summarizes one manual sync pass.
type SyncResult struct {
	Scripts       int `json:"scripts"`
	Replayed      int `json:"replayed"`
	ReplayFailed  int `json:"replay_failed"`
	MetricsPushed int `json:"metrics_pushed"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass now",
		Long: `Run a single sync pass against the backend and exit.

Pulls the script catalog, replays queued outbound changes and pushes any
unsynced metrics. Useful for diagnosing sync problems without waiting for
the agent's next scheduled pass.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}

	return cmd
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rec, st, _, err := openAgent(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	result := SyncResult{}

	result.Scripts, err = rec.SyncScripts(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, "scripts sync failed", err.Error())
		return WrapExitError(ExitFailure, "scripts sync failed", err)
	}
	formatter.VerboseLog("pulled %d scripts", result.Scripts)

	result.Replayed, result.ReplayFailed, err = rec.ReplayOutbox(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "outbox replay failed", err.Error())
		return WrapExitError(ExitFailure, "outbox replay failed", err)
	}
	formatter.VerboseLog("replayed %d queued changes (%d failed)", result.Replayed, result.ReplayFailed)

	result.MetricsPushed, err = rec.PushMetrics(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, "metrics push failed", err.Error())
		return WrapExitError(ExitFailure, "metrics push failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Synced: %d scripts, %d replayed (%d failed), %d metrics pushed\n",
		result.Scripts, result.Replayed, result.ReplayFailed, result.MetricsPushed)
	return nil
}
