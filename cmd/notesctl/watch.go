package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gnotes/internal/importer"
	"gnotes/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		user     string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Import files as they appear in a drop folder",
		Long: `Watches <dir> and imports markdown files and images once they stop changing.
A file written again while the watcher runs replaces the note it created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireOwner(user)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			im, st, err := a.openImporter(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			root := args[0]
			sess := &watchSession{importer: im, owner: owner, root: root, notes: map[string]string{}}
			w, err := watcher.New(watcher.Config{Root: root, DebounceDelay: debounce, OnBatch: sess.importBatch})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, press Ctrl-C to stop\n", root)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner of the imported notes")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before a file is imported")
	return cmd
}

// watchSession remembers which note each path produced so rewrites update it.
type watchSession struct {
	importer *importer.Importer
	owner    string
	root     string
	notes    map[string]string
}

func (s *watchSession) importBatch(ctx context.Context, rels []string) error {
	files := importer.ReadFiles(s.root, rels)
	for i := range files {
		files[i].NoteID = s.notes[files[i].Path]
	}
	report, err := s.importer.Import(ctx, s.owner, files)
	if err != nil {
		return err
	}
	for i, res := range report.Files {
		if res.Outcome == importer.OutcomeNote && i < len(files) {
			s.notes[files[i].Path] = res.NoteID
		}
	}
	slog.Info("imported batch", "notes", report.Notes, "images", report.Images, "failed", report.Failed,
		"unresolved", len(report.Unresolved))
	return nil
}
