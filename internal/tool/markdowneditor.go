package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/filename"
	"github.com/at-ishikawa/learntools/internal/markdown"
)

var MarkdownEditorDefinition = exercise.Definition{
	ID:           "markdown-editor",
	Version:      "v1",
	Title:        "Markdown editor",
	Requirements: exercise.Requirements{DataOptional: true},
}

const defaultMarkdownFilename = "README.md"

var markdownRenderer = markdown.NewRenderer()

type markdownEditorDocument struct {
	Title           string `json:"title"`
	Intro           string `json:"intro"`
	Markdown        string `json:"markdown"`
	ReadOnly        bool   `json:"readOnly"`
	DefaultFilename string `json:"defaultFilename"`
	UniqueID        string `json:"unique_id"`
}

// MarkdownEditor is a markdown editor with a sanitized live preview.
type MarkdownEditor struct {
	identity        completion.Identity
	title           string
	intro           string
	markdown        string
	readOnly        bool
	defaultFilename string
}

func parseMarkdownEditor(src exercise.Source) (exercise.Exercise, error) {
	var doc markdownEditorDocument
	// Without data the editor starts empty.
	if src.Params.DataURL != "" {
		if err := exercise.Decode(src.Document, &doc); err != nil {
			return nil, err
		}
	}
	return &MarkdownEditor{
		identity:        identityFor(MarkdownEditorDefinition, src, doc.UniqueID),
		title:           defaultString(doc.Title, MarkdownEditorDefinition.Title),
		intro:           strings.TrimSpace(doc.Intro),
		markdown:        doc.Markdown,
		readOnly:        doc.ReadOnly,
		defaultFilename: filename.SanitizeOr(doc.DefaultFilename, defaultMarkdownFilename),
	}, nil
}

func (m *MarkdownEditor) Title() string {
	return m.title
}

func (m *MarkdownEditor) Identity() completion.Identity {
	return m.identity
}

type MarkdownEditorView struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Intro           string `json:"intro,omitempty"`
	Markdown        string `json:"markdown"`
	ReadOnly        bool   `json:"readOnly"`
	DefaultFilename string `json:"defaultFilename"`
	PreviewHTML     string `json:"previewHtml"`
	Count           string `json:"count"`
}

func (m *MarkdownEditor) View() any {
	subtitle := "Schrijf links, preview rechts."
	if m.identity.UniqueID != "" {
		subtitle = "ID: " + m.identity.UniqueID
	}
	preview, err := Preview(m.markdown)
	if err != nil {
		preview = MarkdownPreview{Count: markdown.Count(m.markdown).Label()}
	}
	return MarkdownEditorView{
		Title:           m.title,
		Subtitle:        subtitle,
		Intro:           m.intro,
		Markdown:        m.markdown,
		ReadOnly:        m.readOnly,
		DefaultFilename: m.defaultFilename,
		PreviewHTML:     preview.HTML,
		Count:           preview.Count,
	}
}

func (m *MarkdownEditor) DefaultFilename() string {
	return m.defaultFilename
}

type MarkdownPreview struct {
	HTML  string `json:"html"`
	Count string `json:"count"`
}

// Preview renders the editor content.
func Preview(source string) (MarkdownPreview, error) {
	html, err := markdownRenderer.HTML(source)
	if err != nil {
		return MarkdownPreview{}, fmt.Errorf("markdownRenderer.HTML() > %w", err)
	}
	return MarkdownPreview{HTML: html, Count: markdown.Count(source).Label()}, nil
}

func (m *MarkdownEditor) Check(json.RawMessage) (exercise.Result, error) {
	return exercise.Result{}, exercise.ErrNotGradable
}
