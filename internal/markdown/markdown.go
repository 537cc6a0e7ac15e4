// Package markdown renders learner markdown to sanitized HTML and PDF.
package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer turns markdown into HTML that is safe to embed.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	// Links may only use http, https, mailto and tel.
	policy := bluemonday.UGCPolicy()
	policy.AllowURLSchemes("tel")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Renderer{md: md, policy: policy}
}

// HTML renders and sanitizes source.
func (r *Renderer) HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("md.Convert() > %w", err)
	}
	return string(r.policy.SanitizeBytes(buf.Bytes())), nil
}

type Stats struct {
	Lines int `json:"lines"`
	Chars int `json:"chars"`
}

// Label is the counter shown under the editor.
func (s Stats) Label() string {
	return fmt.Sprintf("%d regels · %d tekens", s.Lines, s.Chars)
}

// Count counts lines after normalizing line endings; empty text is one line.
func Count(source string) Stats {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return Stats{
		Lines: strings.Count(normalized, "\n") + 1,
		Chars: utf8.RuneCountInString(source),
	}
}
