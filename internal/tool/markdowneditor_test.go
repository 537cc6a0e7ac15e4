package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/notebook"
)

func TestMarkdownEditor(t *testing.T) {
	t.Run("without data", func(t *testing.T) {
		ex := mustParse(t, MarkdownEditorDefinition, exercise.Params{}, "")
		view := ex.View().(MarkdownEditorView)
		assert.Equal(t, "Markdown editor", view.Title)
		assert.Equal(t, "Schrijf links, preview rechts.", view.Subtitle)
		assert.Equal(t, "README.md", view.DefaultFilename)
		assert.Empty(t, view.PreviewHTML)
		assert.Equal(t, "1 regels · 0 tekens", view.Count)
	})

	t.Run("with data", func(t *testing.T) {
		params := exercise.Params{DataURL: "https://example.org/md.json", UniqueID: "opdracht-3"}
		ex := mustParse(t, MarkdownEditorDefinition, params,
			`{"title":"Verslag","markdown":"# Titel\n\n<script>x</script>\n\n[mail](mailto:a@b.nl)","readOnly":true,"defaultFilename":"mijn:verslag?.md"}`)
		view := ex.View().(MarkdownEditorView)
		assert.Equal(t, "Verslag", view.Title)
		assert.Equal(t, "ID: opdracht-3", view.Subtitle)
		assert.True(t, view.ReadOnly)
		assert.Equal(t, "mijnverslag.md", view.DefaultFilename)
		assert.Contains(t, view.PreviewHTML, `<h1 id="titel">Titel</h1>`)
		assert.Contains(t, view.PreviewHTML, `href="mailto:a@b.nl"`)
		assert.NotContains(t, view.PreviewHTML, "<script>")
		assert.Equal(t, "opdracht-3", ex.(Identified).Identity().UniqueID)
	})

	t.Run("invalid data", func(t *testing.T) {
		_, err := parse(t, MarkdownEditorDefinition, exercise.Params{DataURL: "https://example.org/md.json"}, `{"markdown":5}`)
		var errs exercise.ValidationErrors
		assert.ErrorAs(t, err, &errs)
	})
}

func TestPreview(t *testing.T) {
	got, err := Preview("**vet**\nregel twee")
	require.NoError(t, err)
	assert.Contains(t, got.HTML, "<strong>vet</strong>")
	assert.Equal(t, "2 regels · 18 tekens", got.Count)
}

func TestNotebookDefinition(t *testing.T) {
	ex := mustParse(t, NotebookDefinition, exercise.Params{NotebookID: "schrift-1"}, "")
	nb := ex.(*Notebook)
	assert.Equal(t, "schrift-1", nb.NotebookID())
	assert.Equal(t, notebook.DefaultConfig(), nb.Config())
	assert.Equal(t, notebook.DefaultTitle, ex.Title())

	ex = mustParse(t, NotebookDefinition, exercise.Params{DataURL: "https://example.org/nb.json", NotebookID: "schrift-1"},
		`{"title":"Scheikunde","pagesCount":"20","bookmarks":["Zuren"]}`)
	assert.Equal(t, NotebookView{
		NotebookID: "schrift-1",
		Title:      "Scheikunde",
		Settings:   notebook.Config{Title: "Scheikunde", PagesCount: 20, Bookmarks: []string{"Zuren"}},
	}, ex.View())

	_, err := ex.Check(nil)
	assert.ErrorIs(t, err, exercise.ErrNotGradable)

	_, err = parse(t, NotebookDefinition, exercise.Params{DataURL: "https://example.org/nb.json", NotebookID: "x"}, `{"title":`)
	assert.Error(t, err)
}
