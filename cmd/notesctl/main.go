// Command notesctl administers a notes data directory: users, bulk import and drop-folder watching.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gnotes/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	dataPath string
	verbose  bool
	cfg      config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Manage a notes data directory",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.dataPath != "" {
				cfg.DataPath = a.dataPath
			}
			a.cfg = cfg
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dataPath, "data", "", "Data directory (overrides NOTES_DATA_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newUserCmd(a),
		newHashPasswordCmd(),
		newImportCmd(a),
		newWatchCmd(a),
	)
	return root
}
