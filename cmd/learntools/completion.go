package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/learntools/internal/completion"
)

func newCompletionCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "completion",
		Short: "Inspect or reset stored completion records",
	}
	command.AddCommand(
		newCompletionShowCommand(),
		newCompletionResetCommand(),
	)
	return command
}

func newCompletionShowCommand() *cobra.Command {
	var flags identityFlags

	command := &cobra.Command{
		Use:   "show",
		Short: "Show the completion record of an exercise instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			store := completion.NewStore(completion.NewDBStorage(db))
			tracker := completion.New(cmd.Context(), store, id, "", nil)
			displayCompletion(cmd.OutOrStdout(), tracker)
			return nil
		},
	}
	flags.register(command)

	return command
}

func displayCompletion(w io.Writer, tracker *completion.Tracker) {
	record := tracker.Record()
	if record == nil {
		fmt.Fprintf(w, "No completion recorded under %s\n", tracker.Key())
		return
	}
	_, _ = color.New(color.FgGreen).Fprintf(w, "✓ %s\n", tracker.Banner().Meta)
	fmt.Fprintf(w, "key: %s\n", tracker.Key())
	_ = writeJSON(w, record)
}

func newCompletionResetCommand() *cobra.Command {
	var flags identityFlags

	command := &cobra.Command{
		Use:   "reset",
		Short: "Delete the completion record of an exercise instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			store := completion.NewStore(completion.NewDBStorage(db))
			tracker := completion.New(cmd.Context(), store, id, "", nil)
			if tracker.Record() == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No completion recorded under %s\n", tracker.Key())
				return nil
			}
			tracker.Reset(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed completion %s\n", tracker.Key())
			return nil
		},
	}
	flags.register(command)

	return command
}
