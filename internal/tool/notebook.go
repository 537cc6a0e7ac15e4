package tool

import (
	"encoding/json"
	"fmt"

	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/notebook"
)

var NotebookDefinition = exercise.Definition{
	ID:           "notities",
	Version:      "v1",
	Title:        notebook.DefaultTitle,
	Requirements: exercise.Requirements{DataOptional: true, NotebookID: true},
}

// Notebook is the launch configuration of a notebook. Its records live in a
// notebook.Session.
type Notebook struct {
	id     string
	config notebook.Config
}

func parseNotebook(src exercise.Source) (exercise.Exercise, error) {
	cfg := notebook.DefaultConfig()
	if src.Params.DataURL != "" {
		parsed, err := notebook.ParseConfig(src.Document)
		if err != nil {
			return nil, fmt.Errorf("notebook.ParseConfig() > %w", err)
		}
		cfg = parsed
	}
	return &Notebook{id: src.Params.NotebookID, config: cfg}, nil
}

func (n *Notebook) Title() string {
	return n.config.Title
}

func (n *Notebook) NotebookID() string {
	return n.id
}

func (n *Notebook) Config() notebook.Config {
	return n.config
}

type NotebookView struct {
	NotebookID string          `json:"notebookId"`
	Title      string          `json:"title"`
	Settings   notebook.Config `json:"settings"`
}

func (n *Notebook) View() any {
	return NotebookView{NotebookID: n.id, Title: n.config.Title, Settings: n.config}
}

func (n *Notebook) Check(json.RawMessage) (exercise.Result, error) {
	return exercise.Result{}, exercise.ErrNotGradable
}
