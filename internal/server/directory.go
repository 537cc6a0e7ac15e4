package server

import (
	"html/template"
	"net/http"

	"github.com/at-ishikawa/learntools/internal/registry"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="nl">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Learning Tools - Quiz Types</title>
</head>
<body>
  <header>
    <h1>Learning Tools - Quiz Types</h1>
    <p>Standalone quiz types met versie-mappen en JSON schema's.</p>
  </header>
  <main>
    <p>Gebruik: <code>?unique_id=...&amp;data=URL-naar-json</code> (GET)</p>
    {{- range .}}
    <section class="card">
      <h2>{{.Name}}{{if .Version}} ({{.Version}}){{end}}</h2>
      <div class="meta">{{.LaunchURL}}</div>
      {{- if .Description}}
      <p>{{.Description}}</p>
      {{- end}}
      <div class="actions">
        <a href="{{.DemoURL}}">Open demo</a>
        {{- if .SchemaURL}}
        <a href="{{.SchemaURL}}">Schema</a>
        {{- end}}
        {{- if .ExampleDataURL}}
        <a href="{{.ExampleDataURL}}">Voorbeelddata</a>
        {{- end}}
      </div>
    </section>
    {{- else}}
    <p>Geen tools gevonden.</p>
    {{- end}}
  </main>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.directory.Entries()); err != nil {
		s.logger.Error("failed to render tool directory", "error", err)
	}
}

type toolsResponse struct {
	Types []registry.Entry `json:"types"`
	// Builtin lists the tools this server can load exercises for.
	Builtin []builtinTool `json:"builtin"`
}

type builtinTool struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Title   string `json:"title"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	resp := toolsResponse{Types: s.directory.Entries()}
	if resp.Types == nil {
		resp.Types = []registry.Entry{}
	}
	for _, def := range s.catalog.List() {
		resp.Builtin = append(resp.Builtin, builtinTool{ID: def.ID, Version: def.Version, Title: def.Title})
	}
	s.writeJSON(w, http.StatusOK, resp)
}
