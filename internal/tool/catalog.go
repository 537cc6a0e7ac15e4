// Package tool holds the definitions of every learning tool and the
// interactive state each of them grades answers with.
package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

// Identified is implemented by exercises that record completion.
type Identified interface {
	Identity() completion.Identity
}

// Catalog indexes definitions by tool id and version.
type Catalog struct {
	definitions map[string]exercise.Definition
}

func NewCatalog(definitions ...exercise.Definition) *Catalog {
	c := &Catalog{definitions: make(map[string]exercise.Definition, len(definitions))}
	for _, def := range definitions {
		c.definitions[catalogKey(def.ID, def.Version)] = def
	}
	return c
}

// The parse functions read their own definition back, so Parse is wired
// here rather than in the declarations.
func init() {
	NumberBaseDefinition.Parse = parseNumberBase
	CodeOrderDefinition.Parse = parseCodeOrder
	OrderingDefinition.Parse = parseOrdering
	MatchingDefinition.Parse = parseMatching
	YesNoQuizDefinition.Parse = parseYesNoQuiz
	TimelineDefinition.Parse = parseTimeline
	TypingDefinition.Parse = parseTyping
	ComicDefinition.Parse = parseComic
	MarkdownEditorDefinition.Parse = parseMarkdownEditor
	NotebookDefinition.Parse = parseNotebook
}

// DefaultCatalog contains every tool shipped with learntools.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		NumberBaseDefinition,
		CodeOrderDefinition,
		OrderingDefinition,
		MatchingDefinition,
		YesNoQuizDefinition,
		TimelineDefinition,
		TypingDefinition,
		ComicDefinition,
		MarkdownEditorDefinition,
		NotebookDefinition,
	)
}

func catalogKey(id, version string) string {
	return id + "/" + version
}

func (c *Catalog) Get(id, version string) (exercise.Definition, bool) {
	def, ok := c.definitions[catalogKey(id, version)]
	return def, ok
}

// List returns the definitions sorted by id and version.
func (c *Catalog) List() []exercise.Definition {
	defs := make([]exercise.Definition, 0, len(c.definitions))
	for _, def := range c.definitions {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b exercise.Definition) int {
		return strings.Compare(catalogKey(a.ID, a.Version), catalogKey(b.ID, b.Version))
	})
	return defs
}

// identityFor builds the completion identity. A unique id from the query wins
// over one from the document.
func identityFor(def exercise.Definition, src exercise.Source, documentUniqueID string) completion.Identity {
	uniqueID := src.Params.UniqueID
	if uniqueID == "" {
		uniqueID = strings.TrimSpace(documentUniqueID)
	}
	if uniqueID == "" {
		uniqueID = src.Params.InstanceKey()
	}
	return completion.Identity{
		ToolID:   def.ID,
		Version:  def.Version,
		UniqueID: uniqueID,
		DataURL:  src.Params.DataURL,
	}
}

// requireUniqueID is checked after the fetch for tools that accept the id
// from the document.
func requireUniqueID(identity completion.Identity) error {
	if identity.UniqueID == "" {
		return fmt.Errorf("%w: unique_id", exercise.ErrMissingParameter)
	}
	return nil
}

func defaultString(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func defaultBool(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// flexString accepts a JSON string or number.
type flexString struct {
	Value string
	Set   bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &f.Value); err != nil {
			return err
		}
		f.Set = true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("must be a string or a number")
	}
	f.Value = n.String()
	f.Set = true
	return nil
}

// optionalInt accepts a JSON integer, an integer string, null or "".
type optionalInt struct {
	Value int
	Set   bool
	// Invalid is set for values that are present but not integers.
	Invalid bool
}

func (o *optionalInt) UnmarshalJSON(data []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(data); err != nil {
		o.Invalid = true
		return nil
	}
	s := strings.TrimSpace(raw.Value)
	if !raw.Set || s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		o.Invalid = true
		return nil
	}
	o.Value, o.Set = n, true
	return nil
}
