// Package registry builds the tool directory from the types directory and its registry.json.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/at-ishikawa/learntools/internal/metrics"
)

// scanPattern matches a launchable tool version inside the types directory.
const scanPattern = "*/*/index.{html,php}"

// Entry is one launchable tool version in the directory.
type Entry struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Version        string `json:"version"`
	LaunchURL      string `json:"launchUrl"`
	Description    string `json:"description"`
	SchemaURL      string `json:"schemaUrl"`
	ExampleDataURL string `json:"exampleDataUrl"`
	DemoURL        string `json:"demoUrl"`
}

type rawEntry map[string]any

func (e rawEntry) str(key string) string {
	switch v := e[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
	}
	return ""
}

// Directory holds the last loaded tool directory.
type Directory struct {
	typesDir     string
	registryFile string
	logger       *slog.Logger

	mu      sync.RWMutex
	entries []Entry
}

func NewDirectory(typesDir, registryFile string) *Directory {
	return &Directory{
		typesDir:     typesDir,
		registryFile: registryFile,
		logger:       slog.Default(),
	}
}

// Entries returns a copy of the loaded directory.
func (d *Directory) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Entry(nil), d.entries...)
}

// Reload rereads the registry file and rescans the types directory.
// On failure the previously loaded entries are kept.
func (d *Directory) Reload() error {
	entries, err := Load(d.typesDir, d.registryFile)
	if err != nil {
		metrics.RegistryReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("Load() > %w", err)
	}
	metrics.RegistryReloads.WithLabelValues("ok").Inc()

	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
	d.logger.Debug("tool directory loaded", "entries", len(entries))
	return nil
}

// Load builds the directory. Scanned tool versions form the base and registry
// entries with the same id and version overlay them; without any scanned
// version the registry is used as is.
func Load(typesDir, registryFile string) ([]Entry, error) {
	registered, err := readRegistry(registryFile)
	if err != nil {
		return nil, fmt.Errorf("readRegistry(%s) > %w", registryFile, err)
	}
	scanned, err := scan(typesDir)
	if err != nil {
		return nil, fmt.Errorf("scan(%s) > %w", typesDir, err)
	}

	types := registered
	if len(scanned) > 0 {
		index := make(map[string]rawEntry, len(registered))
		for _, r := range registered {
			id, version := r.str("id"), r.str("version")
			if id == "" || version == "" {
				continue
			}
			index[id+"|"+version] = r
		}

		types = make([]rawEntry, 0, len(scanned))
		for _, s := range scanned {
			if r, ok := index[s.str("id")+"|"+s.str("version")]; ok {
				for k, v := range r {
					s[k] = v
				}
			}
			types = append(types, s)
		}
	}

	entries := make([]Entry, 0, len(types))
	for _, t := range types {
		if entry, ok := normalize(t); ok {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if c := compareFold(entries[i].Name, entries[j].Name); c != 0 {
			return c < 0
		}
		return compareFold(entries[i].Version, entries[j].Version) < 0
	})
	return entries, nil
}

// readRegistry returns the registry types. A missing or unreadable document yields no types.
func readRegistry(registryFile string) ([]rawEntry, error) {
	if registryFile == "" {
		return nil, nil
	}
	content, err := os.ReadFile(registryFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("os.ReadFile() > %w", err)
	}

	var document struct {
		Types []json.RawMessage `json:"types"`
	}
	if err := json.Unmarshal(content, &document); err != nil {
		slog.Default().Warn("ignoring unreadable registry", "file", registryFile, "error", err)
		return nil, nil
	}

	types := make([]rawEntry, 0, len(document.Types))
	for _, raw := range document.Types {
		var entry rawEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry == nil {
			continue
		}
		types = append(types, entry)
	}
	return types, nil
}

func scan(typesDir string) ([]rawEntry, error) {
	if typesDir == "" {
		return nil, nil
	}
	info, err := os.Stat(typesDir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(typesDir), scanPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("doublestar.Glob() > %w", err)
	}
	sort.Strings(matches)

	seen := make(map[string]bool, len(matches))
	var out []rawEntry
	for _, match := range matches {
		versionDir := path.Dir(match)
		if seen[versionDir] {
			continue
		}
		seen[versionDir] = true

		id, version := path.Dir(versionDir), path.Base(versionDir)
		launchURL := "/types/" + id + "/" + version + "/"
		out = append(out, rawEntry{
			"id":             id,
			"name":           titleCase(strings.ReplaceAll(id, "-", " ")),
			"version":        version,
			"launchUrl":      launchURL,
			"schemaUrl":      launchURL + "schema.json",
			"exampleDataUrl": launchURL + "example.json",
		})
	}
	return out, nil
}

func normalize(t rawEntry) (Entry, bool) {
	launchURL := t.str("launchUrl")
	if launchURL == "" {
		return Entry{}, false
	}
	if !strings.HasPrefix(launchURL, "/") {
		launchURL = "/" + launchURL
	}
	launchURL = strings.TrimRight(launchURL, "/") + "/"

	id, version := t.str("id"), t.str("version")
	name := t.str("id")
	if _, ok := t["name"]; ok && t["name"] != nil {
		name = t.str("name")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = launchURL
	}

	uniqueID := "demo"
	if id != "" {
		uniqueID += "-" + id
	}
	if version != "" {
		uniqueID += "-" + version
	}
	data := t.str("exampleDataUrl")
	if data == "" {
		data = "example.json"
	}

	return Entry{
		ID:             id,
		Name:           name,
		Version:        version,
		LaunchURL:      launchURL,
		Description:    t.str("description"),
		SchemaURL:      t.str("schemaUrl"),
		ExampleDataURL: t.str("exampleDataUrl"),
		DemoURL:        launchURL + "?unique_id=" + rawURLEncode(uniqueID) + "&data=" + rawURLEncode(data),
	}, true
}

// rawURLEncode escapes everything but unreserved characters, spaces included.
func rawURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
