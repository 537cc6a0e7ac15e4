package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Config is the notebook document behind the data URL.
type Config struct {
	Title      string   `json:"title"`
	PagesCount int      `json:"pagesCount"`
	Bookmarks  []string `json:"bookmarks"`
}

func DefaultConfig() Config {
	return Config{Title: DefaultTitle, PagesCount: DefaultPagesCount}
}

type configDocument struct {
	Title      json.RawMessage `json:"title"`
	PagesCount json.RawMessage `json:"pagesCount"`
	Bookmarks  json.RawMessage `json:"bookmarks"`
}

// ParseConfig reads a notebook document leniently: unusable values fall back
// to defaults, the page count is clamped to 1..1000 and bookmark entries may
// be names or objects with a name.
func ParseConfig(document []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(document)) == 0 {
		return cfg, nil
	}

	var raw json.RawMessage
	if err := json.Unmarshal(document, &raw); err != nil {
		return Config{}, fmt.Errorf("json.Unmarshal() > %w", err)
	}
	var doc configDocument
	if err := json.Unmarshal(document, &doc); err != nil {
		// Not an object: use the defaults.
		return cfg, nil
	}

	var title string
	if err := json.Unmarshal(doc.Title, &title); err == nil && strings.TrimSpace(title) != "" {
		cfg.Title = title
	}
	if n, ok := parsePagesCount(doc.PagesCount); ok {
		cfg.PagesCount = clampInt(n, 1, MaxPagesCount)
	}
	var entries []json.RawMessage
	_ = json.Unmarshal(doc.Bookmarks, &entries)
	for _, entry := range entries {
		if name, ok := bookmarkName(entry); ok {
			cfg.Bookmarks = append(cfg.Bookmarks, name)
		}
	}
	return cfg, nil
}

// parsePagesCount accepts a number or a numeric string; zero counts as unset.
func parsePagesCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

func bookmarkName(raw json.RawMessage) (string, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		var obj struct {
			Name *string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Name == nil {
			return "", false
		}
		name = *obj.Name
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// Placement is where a preset bookmark goes.
type Placement struct {
	PageIndex int
	Slot      int
}

// PresetPlacements spreads n bookmarks evenly over the pages and slots.
func PresetPlacements(pagesCount, n int) []Placement {
	if n <= 0 {
		return nil
	}
	step := max(1, pagesCount/(n+1))
	slotStep := max(1, BookmarkSlots/(n+1))
	placements := make([]Placement, n)
	for i := range placements {
		placements[i] = Placement{
			PageIndex: clampInt(step*(i+1), 0, pagesCount-1),
			Slot:      clampInt(slotStep*(i+1), 0, BookmarkSlots-1),
		}
	}
	return placements
}
