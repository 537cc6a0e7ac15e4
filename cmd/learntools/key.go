package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/learntools/internal/completion"
)

type identityFlags struct {
	toolID   string
	version  string
	uniqueID string
	dataURL  string
}

// register adds the identity flags to command; --tool is required.
func (f *identityFlags) register(command *cobra.Command) {
	f.addTo(command.Flags())
	_ = command.MarkFlagRequired("tool")
}

func (f *identityFlags) addTo(flags *pflag.FlagSet) {
	flags.StringVar(&f.toolID, "tool", "", "tool id")
	flags.StringVar(&f.version, "version", "v1", "tool version")
	flags.StringVar(&f.uniqueID, "unique-id", "", "unique id of the exercise instance")
	flags.StringVar(&f.dataURL, "data", "", "data URL, used when there is no unique id")
}

func (f *identityFlags) identity() (completion.Identity, error) {
	if f.uniqueID == "" && f.dataURL == "" {
		return completion.Identity{}, fmt.Errorf("either --unique-id or --data is required")
	}
	return completion.Identity{
		ToolID:   f.toolID,
		Version:  f.version,
		UniqueID: f.uniqueID,
		DataURL:  f.dataURL,
	}, nil
}

func newKeyCommand() *cobra.Command {
	var flags identityFlags

	command := &cobra.Command{
		Use:   "key",
		Short: "Print the completion storage keys of an exercise instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "storage key: %s\n", completion.StorageKey(id))
			fmt.Fprintf(w, "legacy key:  %s\n", completion.LegacyKey(id))
			return nil
		},
	}
	flags.register(command)

	return command
}
