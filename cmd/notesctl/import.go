package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gnotes/internal/auth"
	"gnotes/internal/importer"
	"gnotes/internal/storage/blob"
	"gnotes/internal/store"
)

// openImporter opens the store under the configured data directory.
// The caller closes the returned store.
func (a *app) openImporter(ctx context.Context) (*importer.Importer, *store.Store, error) {
	if err := os.MkdirAll(a.cfg.DataPath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.OpenWithOptions(a.cfg.DBPath(), store.OpenOptions{BusyTimeout: a.cfg.DBLockTimeout})
	if err != nil {
		return nil, nil, err
	}
	if err := st.Init(ctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	blobs := blob.New(a.cfg.StoragePath(), a.cfg.PublicURL)
	return importer.New(st, blobs), st, nil
}

func requireOwner(user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.New("--user is required")
	}
	if err := auth.ValidUsername(user); err != nil {
		return "", err
	}
	return user, nil
}

func newImportCmd(a *app) *cobra.Command {
	var (
		user    string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import a directory of markdown files and images",
		Long: `Imports every markdown file and image under <dir>. Folders are recreated
under a top-level folder named after <dir>, images are stored and referenced
from the imported notes.

Examples:
  notesctl import --user alice ~/Vault
  notesctl import --user alice --json ./export`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireOwner(user)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			files, err := importer.ReadDir(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no markdown files or images under %s", args[0])
			}
			im, st, err := a.openImporter(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := im.Import(ctx, owner, files)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, jsonOut)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner of the imported notes")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the import report as JSON")
	return cmd
}

func printReport(w io.Writer, report importer.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	for _, f := range report.Files {
		switch f.Outcome {
		case importer.OutcomeSkipped, importer.OutcomeFailed:
			fmt.Fprintf(w, "%-8s %s (%s)\n", f.Outcome, f.Path, f.Reason)
		default:
			fmt.Fprintf(w, "%-8s %s\n", f.Outcome, f.Path)
		}
	}
	fmt.Fprintf(w, "notes: %d  images: %d  skipped: %d  failed: %d\n",
		report.Notes, report.Images, report.Skipped, report.Failed)
	if len(report.FoldersCreated) > 0 {
		fmt.Fprintf(w, "folders created: %s\n", strings.Join(report.FoldersCreated, ", "))
	}
	if len(report.Unresolved) > 0 {
		fmt.Fprintf(w, "unresolved links: %s\n", strings.Join(report.Unresolved, ", "))
	}
	return nil
}
