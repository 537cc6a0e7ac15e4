package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

var ComicDefinition = exercise.Definition{
	ID:      "strip-ballonnetjes",
	Version: "v1",
	Title:   "Strip ballonnetjes",
}

const (
	defaultBubbleWidth = 240
	minBubbleWidth     = 40
)

type comicDocument struct {
	Title string            `json:"title"`
	Pages []json.RawMessage `json:"pages"`
	Debug bool              `json:"debug"`
}

type comicPageDocument struct {
	Image       string            `json:"image"`
	ImageURL    string            `json:"imageUrl"`
	DesignWidth float64           `json:"designWidth"`
	Alt         string            `json:"alt"`
	Title       string            `json:"title"`
	Bubbles     []json.RawMessage `json:"bubbles"`
}

type comicBubbleDocument struct {
	Text  string   `json:"text"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Width *float64 `json:"width"`
	Tail  string   `json:"tail"`
}

type Bubble struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
	Tail  string  `json:"tail"`
}

type ComicPage struct {
	Image       string   `json:"image"`
	Alt         string   `json:"alt"`
	DesignWidth float64  `json:"designWidth,omitempty"`
	Bubbles     []Bubble `json:"bubbles"`
	// Label is only set in debug mode.
	Label string `json:"label,omitempty"`
}

// Comic places speech bubbles over comic pages. Display only.
type Comic struct {
	identity completion.Identity
	title    string
	pages    []ComicPage
}

func parseComic(src exercise.Source) (exercise.Exercise, error) {
	var doc comicDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		var errs exercise.ValidationErrors
		errs.Add("pages", "no pages found")
		return nil, errs
	}

	comic := &Comic{
		identity: identityFor(ComicDefinition, src, ""),
		title:    defaultString(doc.Title, ComicDefinition.Title),
	}
	for i, raw := range doc.Pages {
		var page comicPageDocument
		if err := json.Unmarshal(raw, &page); err != nil {
			continue
		}
		image := defaultString(page.Image, page.ImageURL)
		if image == "" {
			continue
		}
		out := ComicPage{
			Image:       src.ResolveURL(image),
			Alt:         defaultString(page.Alt, defaultString(page.Title, fmt.Sprintf("Afbeelding %d", i+1))),
			DesignWidth: page.DesignWidth,
		}
		for _, rawBubble := range page.Bubbles {
			var b comicBubbleDocument
			if err := json.Unmarshal(rawBubble, &b); err != nil {
				continue
			}
			width := float64(defaultBubbleWidth)
			if b.Width != nil {
				width = *b.Width
			}
			out.Bubbles = append(out.Bubbles, Bubble{Text: b.Text, X: b.X, Y: b.Y, Width: width, Tail: NormalizeTail(b.Tail)})
		}
		if doc.Debug {
			out.Label = fmt.Sprintf("page %d", i+1)
		}
		comic.pages = append(comic.pages, out)
	}
	return comic, nil
}

// NormalizeTail maps Dutch and English tail names to left, right or none.
func NormalizeTail(tail string) string {
	switch strings.ToLower(strings.TrimSpace(tail)) {
	case "left", "links":
		return "left"
	case "right", "rechts":
		return "right"
	}
	return "none"
}

// PlacedBubble is a bubble in rendered pixels.
type PlacedBubble struct {
	Left  int    `json:"left"`
	Top   int    `json:"top"`
	Width int    `json:"width"`
	Tail  string `json:"tail"`
}

// Layout scales the bubbles of a page to the rendered image width. Positions
// are in pixels of the design width, or the natural width without one.
func (p ComicPage) Layout(renderedWidth, naturalWidth float64) (float64, []PlacedBubble) {
	design := p.DesignWidth
	if design <= 0 {
		design = naturalWidth
	}
	scale := renderedWidth / math.Max(1, design)
	placed := make([]PlacedBubble, len(p.Bubbles))
	for i, b := range p.Bubbles {
		placed[i] = PlacedBubble{
			Left:  int(math.Round(b.X * scale)),
			Top:   int(math.Round(b.Y * scale)),
			Width: int(math.Round(math.Max(minBubbleWidth, b.Width) * scale)),
			Tail:  b.Tail,
		}
	}
	return scale, placed
}

func (c *Comic) Title() string {
	return c.title
}

func (c *Comic) Identity() completion.Identity {
	return c.identity
}

func (c *Comic) Pages() []ComicPage {
	return c.pages
}

type ComicView struct {
	Title string      `json:"title"`
	Pages []ComicPage `json:"pages"`
	Hint  string      `json:"hint"`
}

func (c *Comic) View() any {
	return ComicView{
		Title: c.title,
		Pages: c.pages,
		Hint:  "Tip: positions zijn in pixels t.o.v. de originele afbeelding (designWidth of naturalWidth).",
	}
}

func (c *Comic) Check(json.RawMessage) (exercise.Result, error) {
	return exercise.Result{}, exercise.ErrNotGradable
}
