package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show local sync state",
		Long: `Show the agent's sync state: synced, pending (queued changes waiting
for the backend) or offline (backend unreachable).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
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

	status := rec.Status(cmd.Context())

	if formatter.Format == "json" {
		return formatter.Success(status)
	}

	fmt.Fprintf(formatter.Writer, "State:   %s\n", status.State)
	fmt.Fprintf(formatter.Writer, "Pending: %d queued change(s)\n", status.Pending)
	fmt.Fprintf(formatter.Writer, "Scripts: %d cached\n", status.Scripts)
	return nil
}
