package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/tool"
)

// placeholderID satisfies identity parameters so a document can be checked on its own.
const placeholderID = "validate"

func newValidateCommand() *cobra.Command {
	var version string

	command := &cobra.Command{
		Use:   "validate <tool> <file>",
		Short: "Validate an exercise data document (JSON or YAML) against a tool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), tool.DefaultCatalog(), args[0], version, args[1])
		},
	}
	command.Flags().StringVar(&version, "version", "v1", "tool version")

	return command
}

func runValidate(ctx context.Context, w io.Writer, catalog *tool.Catalog, toolID, version, path string) error {
	def, ok := catalog.Get(toolID, version)
	if !ok {
		return fmt.Errorf("unknown tool %s %s", toolID, version)
	}

	params := exercise.Params{
		DataURL:      path,
		CourseID:     placeholderID,
		AssignmentID: placeholderID,
		NotebookID:   placeholderID,
	}
	if def.Requirements.UniqueID && !def.Requirements.UniqueIDFromData {
		params.UniqueID = placeholderID
	}

	loaded, err := exercise.Load(ctx, exercise.NewFileFetcher(""), def, params)
	if err != nil {
		var validationErrs exercise.ValidationErrors
		if errors.As(err, &validationErrs) {
			displayValidationErrors(w, path, validationErrs)
			return fmt.Errorf("validation failed with %d error(s)", len(validationErrs))
		}
		red := color.New(color.FgRed)
		_, _ = red.Fprintf(w, "✗ %s: %v\n", path, err)
		return fmt.Errorf("exercise.Load() > %w", err)
	}

	green := color.New(color.FgGreen)
	_, _ = green.Fprintf(w, "✓ %s is a valid %s %s document (%s)\n", path, def.ID, def.Version, loaded.Title())
	return nil
}

func displayValidationErrors(w io.Writer, path string, errs exercise.ValidationErrors) {
	red := color.New(color.FgRed)
	_, _ = red.Fprintf(w, "✗ %s has %d validation error(s):\n", path, len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "  - %s\n", e.Error())
	}
}
