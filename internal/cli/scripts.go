package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/microdiag/agent/internal/store"
)

// ScriptsOptions holds flags for the scripts command.
type ScriptsOptions struct {
	*RootOptions
	Category string
}

// NewScriptsCommand creates the scripts command.
func NewScriptsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScriptsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "List cached diagnostic scripts",
		Long: `List the active diagnostic scripts in the local cache.

The cache is populated by sync passes; this command works offline and shows
whatever the last successful sync pulled.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "only scripts in this category")

	return cmd
}

func runScripts(opts *ScriptsOptions, cmd *cobra.Command) error {
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
	var scripts []store.Script
	if opts.Category != "" {
		scripts, err = st.ListScriptsByCategory(ctx, opts.Category)
	} else {
		scripts, err = st.ListScripts(ctx)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to list scripts", err.Error())
		return WrapExitError(ExitCommandError, "failed to list scripts", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(scripts)
	}

	if len(scripts) == 0 {
		fmt.Fprintln(formatter.Writer, "No cached scripts. Run 'microdiag sync' to pull the catalog.")
		return nil
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tNAME\tLANGUAGE\tADMIN")
	for _, sc := range scripts {
		admin := ""
		if sc.RequiresAdmin {
			admin = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sc.Category, sc.Name, sc.Language, admin)
	}
	return w.Flush()
}
