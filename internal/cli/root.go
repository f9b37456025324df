// Package cli implements the microdiag command surface: the long-running
// agent loop plus one-shot commands for inspecting and driving the local
// store and its sync state.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microdiag/agent/internal/backend"
	"github.com/microdiag/agent/internal/config"
	"github.com/microdiag/agent/internal/reconciler"
	"github.com/microdiag/agent/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the microdiag CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "microdiag",
		Short: "MicroDiag device agent",
		Long:  "Local-first PC health agent: caches diagnostics locally and reconciles with the backend when reachable.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "path to agent config file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewScriptsCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openAgent wires the store, backend client and reconciler from the
// configured settings. The caller owns the returned store's lifetime.
func openAgent(opts *RootOptions) (*reconciler.Reconciler, *store.Store, *config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to resolve database path", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	token, err := st.EnsureDeviceToken(context.Background())
	if err != nil {
		st.Close()
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to resolve device token", err)
	}

	client := backend.New(cfg.BackendURL, cfg.APIKey)
	return reconciler.New(st, client, token), st, cfg, nil
}
