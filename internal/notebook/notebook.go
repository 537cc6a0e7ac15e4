// Package notebook stores paged notebooks with typed text, pen strokes and
// bookmarks, and keeps one open notebook in sync through debounced writes.
package notebook

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/learntools/internal/filename"
)

const (
	// BookmarkSlots is the number of fixed bookmark positions on the page edge.
	BookmarkSlots = 12

	DefaultTitle      = "Notities"
	DefaultPagesCount = 100
	MaxPagesCount     = 1000
)

// Notebook is the metadata of one notebook.
type Notebook struct {
	ID            string `db:"id" json:"id"`
	Title         string `db:"title" json:"title"`
	PagesCount    int    `db:"pages_count" json:"pagesCount"`
	LastPageIndex int    `db:"last_page_index" json:"lastPageIndex"`
	CreatedAt     string `db:"created_at" json:"createdAt"`
	UpdatedAt     string `db:"updated_at" json:"updatedAt"`
}

// Point is a position relative to the page, both axes in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Points []Point `json:"points"`
}

// Strokes is stored as a JSON column.
type Strokes []Stroke

func (s Strokes) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal() > %w", err)
	}
	return string(b), nil
}

func (s *Strokes) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Strokes{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported strokes column type %T", src)
	}
	var out Strokes
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("json.Unmarshal() > %w", err)
	}
	if out == nil {
		out = Strokes{}
	}
	*s = out
	return nil
}

// Normalize clamps points into the page and pen widths to 1..18.
func (s Strokes) Normalize() Strokes {
	out := make(Strokes, 0, len(s))
	for _, stroke := range s {
		n := Stroke{Color: stroke.Color, Width: stroke.Width, Points: make([]Point, len(stroke.Points))}
		if n.Color == "" {
			n.Color = "#111827"
		}
		if n.Width == 0 || math.IsNaN(n.Width) {
			n.Width = 4
		}
		n.Width = clampFloat(n.Width, 1, 18)
		for i, p := range stroke.Points {
			n.Points[i] = Point{X: clampFloat(p.X, 0, 1), Y: clampFloat(p.Y, 0, 1)}
		}
		out = append(out, n)
	}
	return out
}

type Page struct {
	Key        string  `db:"page_key" json:"key"`
	NotebookID string  `db:"notebook_id" json:"id"`
	PageIndex  int     `db:"page_index" json:"pageIndex"`
	Text       string  `db:"text" json:"text"`
	Strokes    Strokes `db:"strokes" json:"strokes"`
	UpdatedAt  string  `db:"updated_at" json:"updatedAt"`
}

type Bookmark struct {
	Key        string  `db:"bookmark_key" json:"key"`
	NotebookID string  `db:"notebook_id" json:"id"`
	BookmarkID string  `db:"bookmark_id" json:"bookmarkId"`
	Name       string  `db:"name" json:"name"`
	PageIndex  int     `db:"page_index" json:"pageIndex"`
	Slot       int     `db:"slot" json:"slot"`
	Strokes    Strokes `db:"strokes" json:"strokes"`
	Preset     bool    `db:"preset" json:"preset"`
	CreatedAt  string  `db:"created_at" json:"createdAt"`
	UpdatedAt  string  `db:"updated_at" json:"updatedAt"`
}

func PageKey(notebookID string, pageIndex int) string {
	return notebookID + "::p::" + strconv.Itoa(pageIndex)
}

func BookmarkKey(notebookID, bookmarkID string) string {
	return notebookID + "::b::" + bookmarkID
}

func NewBookmarkID() string {
	return "bm_" + uuid.NewString()
}

// ExportFilename is the download name of a notebook snapshot.
func ExportFilename(notebookID string) string {
	return filename.SanitizeOr("notitieblok-"+notebookID+".json", "notitieblok.json")
}

// Timestamp formats t the way every record stores it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

var (
	ErrMissingID       = errors.New("notitieblok_id is required")
	ErrBusy            = errors.New("a page turn is in progress")
	ErrStaleResponse   = errors.New("stale configuration response")
	ErrEmptyName       = errors.New("bookmark name is empty")
	ErrUnknownBookmark = errors.New("unknown bookmark")
)

func clampInt(n, lo, hi int) int {
	return max(lo, min(hi, n))
}

func clampFloat(n, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, n))
}
