package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/filename"
	"github.com/at-ishikawa/learntools/internal/markdown"
	"github.com/at-ishikawa/learntools/internal/tool"
)

type renderMarkdownRequest struct {
	Markdown string `json:"markdown"`
}

func (s *Server) handleRenderMarkdown(w http.ResponseWriter, r *http.Request) {
	var req renderMarkdownRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	preview, err := tool.Preview(req.Markdown)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("tool.Preview() > %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, preview)
}

type downloadMarkdownRequest struct {
	Markdown string `json:"markdown"`
	Filename string `json:"filename"`
	// Format is md (default) or pdf.
	Format string `json:"format"`
}

func (s *Server) handleDownloadMarkdown(w http.ResponseWriter, r *http.Request) {
	var req downloadMarkdownRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := filename.SanitizeOr(req.Filename, "README.md")

	switch strings.ToLower(strings.TrimSpace(req.Format)) {
	case "", "md", "markdown":
		attachment(w, "text/markdown; charset=utf-8", filename.WithExtension(name, ".md"))
		_, _ = w.Write([]byte(req.Markdown))
	case "pdf":
		content, err := markdown.PDF(req.Markdown)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("markdown.PDF() > %w", err))
			return
		}
		attachment(w, "application/pdf", filename.WithExtension(name, ".pdf"))
		_, _ = w.Write(content)
	default:
		s.writeError(w, r, &exercise.ConfigError{
			Kind: exercise.KindParameter,
			Err:  fmt.Errorf("unsupported format %q", req.Format),
		})
	}
}
