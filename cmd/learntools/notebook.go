package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/learntools/internal/notebook"
)

func newNotebookCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "notebook",
		Short: "Notebook commands",
	}
	command.AddCommand(newNotebookExportCommand())
	return command
}

func newNotebookExportCommand() *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored notebook with its pages and bookmarks as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			id := args[0]
			if output == "" {
				output = notebook.ExportFilename(id)
			}
			if output == "-" {
				return exportNotebook(ctx, notebook.NewDBStore(db), id, cmd.OutOrStdout())
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("os.Create(%s) > %w", output, err)
			}
			if err := exportNotebook(ctx, notebook.NewDBStore(db), id, file); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("file.Close() > %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported notebook %s to %s\n", id, output)
			return nil
		},
	}
	command.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default notitieblok-<id>.json)")

	return command
}

// exportNotebook writes the snapshot of an existing notebook. Unlike opening
// one from a launch, a missing notebook is not created.
func exportNotebook(ctx context.Context, store notebook.Store, id string, w io.Writer) error {
	nb, err := store.GetNotebook(ctx, id)
	if err != nil {
		return fmt.Errorf("store.GetNotebook(%s) > %w", id, err)
	}
	if nb == nil {
		return fmt.Errorf("notebook %s not found", id)
	}

	session, err := notebook.Open(ctx, store, id, notebook.Config{Title: nb.Title, PagesCount: nb.PagesCount})
	if err != nil {
		return fmt.Errorf("notebook.Open(%s) > %w", id, err)
	}
	snapshot, err := session.Export(ctx)
	closeErr := session.Close(ctx)
	if err != nil {
		return fmt.Errorf("session.Export() > %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("session.Close() > %w", closeErr)
	}
	return writeJSON(w, snapshot)
}
