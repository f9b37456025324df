package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/microdiag/agent/internal/store"
)

// QueueOptions holds flags for the queue command.
type QueueOptions struct {
	*RootOptions
	All bool
}

// NewQueueCommand creates the queue command.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List queued outbound changes",
		Long: `List local changes waiting to be replayed to the backend.

By default only items still inside the retry budget are shown. With --all,
parked items (those that exhausted their retries) are included along with
their last error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueue(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "include parked items that exhausted their retries")

	return cmd
}

func runQueue(opts *QueueOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	_, st, _, err := openAgent(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var items []store.OutboxItem
	if opts.All {
		items, err = st.ListAllOutbox(ctx)
	} else {
		items, err = st.ListEligibleOutbox(ctx, 1000)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to list queue", err.Error())
		return WrapExitError(ExitCommandError, "failed to list queue", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(formatter.Writer, "Queue is empty.")
		return nil
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTABLE\tOP\tRETRIES\tCREATED\tLAST ERROR")
	for _, it := range items {
		state := fmt.Sprintf("%d/%d", it.RetryCount, store.MaxRetries)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.TableName, it.Operation, state, it.CreatedAt, it.LastError)
	}
	return w.Flush()
}
