package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/learntools/internal/registry"
	"github.com/at-ishikawa/learntools/internal/tool"
)

type toolList struct {
	Builtin   []builtinTool    `json:"builtin"`
	Installed []registry.Entry `json:"installed"`
}

type builtinTool struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Title   string `json:"title"`
}

func newToolsCommand() *cobra.Command {
	var asJSON bool

	command := &cobra.Command{
		Use:   "tools",
		Short: "List the built-in tools and the tool types installed in the types directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loadConfig() > %w", err)
			}
			entries, err := registry.Load(cfg.Registry.TypesDirectory, cfg.Registry.RegistryFilePath())
			if err != nil {
				return fmt.Errorf("registry.Load() > %w", err)
			}
			list := newToolList(tool.DefaultCatalog(), entries)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			displayTools(cmd.OutOrStdout(), list)
			return nil
		},
	}
	command.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")

	return command
}

func newToolList(catalog *tool.Catalog, entries []registry.Entry) toolList {
	list := toolList{Installed: entries}
	for _, def := range catalog.List() {
		list.Builtin = append(list.Builtin, builtinTool{ID: def.ID, Version: def.Version, Title: def.Title})
	}
	if list.Installed == nil {
		list.Installed = []registry.Entry{}
	}
	return list
}

func displayTools(w io.Writer, list toolList) {
	bold := color.New(color.Bold)

	_, _ = bold.Fprintf(w, "Built-in tools (%d):\n", len(list.Builtin))
	for _, t := range list.Builtin {
		fmt.Fprintf(w, "  %-26s %-4s %s\n", t.ID, t.Version, t.Title)
	}
	fmt.Fprintln(w)

	_, _ = bold.Fprintf(w, "Installed tool types (%d):\n", len(list.Installed))
	if len(list.Installed) == 0 {
		fmt.Fprintln(w, "  Geen tools gevonden.")
		return
	}
	for _, e := range list.Installed {
		fmt.Fprintf(w, "  %-26s %-4s %s\n", e.Name, e.Version, e.LaunchURL)
	}
}
