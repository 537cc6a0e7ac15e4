package notebook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "nb1::p::0", PageKey("nb1", 0))
	assert.Equal(t, "nb1::p::42", PageKey("nb1", 42))
	assert.Equal(t, "nb1::b::bm_x", BookmarkKey("nb1", "bm_x"))
	assert.Regexp(t, `^bm_[0-9a-f-]{36}$`, NewBookmarkID())
	assert.NotEqual(t, NewBookmarkID(), NewBookmarkID())
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 1, 11, 30, 0, 500, time.FixedZone("CET", 3600))
	assert.Equal(t, "2025-03-01T10:30:00.0000005Z", Timestamp(ts))
}

func TestStrokes_ValueAndScan(t *testing.T) {
	v, err := Strokes(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	strokes := Strokes{{Color: "#ff0000", Width: 3, Points: []Point{{X: 0.1, Y: 0.2}}}}
	v, err = strokes.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"color":"#ff0000","width":3,"points":[{"x":0.1,"y":0.2}]}]`, v.(string))

	tests := []struct {
		name    string
		src     any
		want    Strokes
		wantErr bool
	}{
		{name: "string", src: v, want: strokes},
		{name: "bytes", src: []byte(v.(string)), want: strokes},
		{name: "null column", src: nil, want: Strokes{}},
		{name: "json null", src: "null", want: Strokes{}},
		{name: "invalid json", src: "{", wantErr: true},
		{name: "unsupported type", src: 12, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Strokes
			err := got.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrokes_Normalize(t *testing.T) {
	got := Strokes{
		{Points: []Point{{X: -1, Y: 2}, {X: 0.5, Y: 0.5}}},
		{Color: "#00ff00", Width: 40},
		{Color: "#0000ff", Width: 0.2},
	}.Normalize()

	assert.Equal(t, Strokes{
		{Color: "#111827", Width: 4, Points: []Point{{X: 0, Y: 1}, {X: 0.5, Y: 0.5}}},
		{Color: "#00ff00", Width: 18, Points: []Point{}},
		{Color: "#0000ff", Width: 1, Points: []Point{}},
	}, got)
	assert.Equal(t, Strokes{}, Strokes(nil).Normalize())
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     Config
		wantErr  bool
	}{
		{
			name: "empty document",
			want: DefaultConfig(),
		},
		{
			name:     "invalid json",
			document: `{"title":`,
			wantErr:  true,
		},
		{
			name:     "not an object",
			document: `[1, 2]`,
			want:     DefaultConfig(),
		},
		{
			name:     "full document",
			document: `{"title":"Wiskunde","pagesCount":40,"bookmarks":["H1",{"name":"H2"},{"x":1}," ",3]}`,
			want:     Config{Title: "Wiskunde", PagesCount: 40, Bookmarks: []string{"H1", "H2"}},
		},
		{
			name:     "page count as string",
			document: `{"pagesCount":" 12 "}`,
			want:     Config{Title: DefaultTitle, PagesCount: 12},
		},
		{
			name:     "page count above maximum",
			document: `{"pagesCount":5000}`,
			want:     Config{Title: DefaultTitle, PagesCount: MaxPagesCount},
		},
		{
			name:     "negative page count",
			document: `{"pagesCount":-3}`,
			want:     Config{Title: DefaultTitle, PagesCount: 1},
		},
		{
			name:     "zero page count uses default",
			document: `{"pagesCount":0}`,
			want:     DefaultConfig(),
		},
		{
			name:     "unusable values",
			document: `{"title":7,"pagesCount":"veel","bookmarks":"H1"}`,
			want:     DefaultConfig(),
		},
		{
			name:     "blank title",
			document: `{"title":"  "}`,
			want:     DefaultConfig(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig([]byte(tt.document))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPresetPlacements(t *testing.T) {
	tests := []struct {
		name       string
		pagesCount int
		n          int
		want       []Placement
	}{
		{name: "none", pagesCount: 100, n: 0},
		{
			name:       "spread over pages and slots",
			pagesCount: 100,
			n:          2,
			want:       []Placement{{PageIndex: 33, Slot: 4}, {PageIndex: 66, Slot: 8}},
		},
		{
			name:       "more bookmarks than pages",
			pagesCount: 2,
			n:          3,
			want:       []Placement{{PageIndex: 1, Slot: 3}, {PageIndex: 1, Slot: 6}, {PageIndex: 1, Slot: 9}},
		},
		{
			name:       "more bookmarks than slots",
			pagesCount: 100,
			n:          12,
			want: func() []Placement {
				out := make([]Placement, 12)
				for i := range out {
					out[i] = Placement{PageIndex: 7 * (i + 1), Slot: min(i+1, BookmarkSlots-1)}
				}
				return out
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PresetPlacements(tt.pagesCount, tt.n))
		})
	}
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "notitieblok-schrift-1.json", ExportFilename("schrift-1"))
	assert.Equal(t, "notitieblok-ab.json", ExportFilename("a/b"))
}
