package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

var TimelineDefinition = exercise.Definition{
	ID:           "timeline",
	Version:      "v1",
	Title:        "Timeline",
	Requirements: exercise.Requirements{UniqueID: true, UniqueIDFromData: true},
}

const (
	maxTicks          = 48
	maxTickIterations = 5000
)

var dutchMonths = [...]string{"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}

var dutchMonthsLong = [...]string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDate reads the date formats a timeline document may use. Dates
// without a zone are UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

type timelineDocument struct {
	Title     string          `json:"title"`
	Intro     string          `json:"intro"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Scale     string          `json:"scale"`
	Direction string          `json:"direction"`
	Events    json.RawMessage `json:"events"`
	Viewport  struct {
		MinWidthPx  float64 `json:"minWidthPx"`
		MinHeightPx float64 `json:"minHeightPx"`
	} `json:"viewport"`
	UniqueID string `json:"unique_id"`
}

type timelineEventDocument struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Placement   string `json:"placement"`
	ImageURL    string `json:"imageUrl"`
	LinkURL     string `json:"linkUrl"`
}

type TimelineEvent struct {
	Date        time.Time `json:"date"`
	Meta        string    `json:"meta"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Description string    `json:"description,omitempty"`
	Side        string    `json:"side"`
	// Position is the place on the axis between 0 (start) and 1 (end).
	Position float64 `json:"position"`
	ImageURL string  `json:"imageUrl,omitempty"`
	LinkURL  string  `json:"linkUrl,omitempty"`
}

type TimelineTick struct {
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

type TimelineView struct {
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle"`
	Intro       string          `json:"intro,omitempty"`
	Direction   string          `json:"direction"`
	Scale       string          `json:"scale"`
	Ticks       []TimelineTick  `json:"ticks"`
	Events      []TimelineEvent `json:"events"`
	MinWidthPx  int             `json:"minWidthPx,omitempty"`
	MinHeightPx int             `json:"minHeightPx,omitempty"`
	Status      string          `json:"status,omitempty"`
}

// Timeline is display only.
type Timeline struct {
	identity completion.Identity
	view     TimelineView
}

func parseTimeline(src exercise.Source) (exercise.Exercise, error) {
	var doc timelineDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}

	identity := identityFor(TimelineDefinition, src, doc.UniqueID)
	if err := requireUniqueID(identity); err != nil {
		return nil, err
	}

	var errs exercise.ValidationErrors
	start, okStart := ParseDate(doc.StartDate)
	end, okEnd := ParseDate(doc.EndDate)
	if !okStart {
		errs.Add("startDate", "is missing or not a date")
	}
	if !okEnd {
		errs.Add("endDate", "is missing or not a date")
	}
	if okStart && okEnd && !end.After(start) {
		errs.Add("endDate", "must be after startDate")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var rawEvents []json.RawMessage
	if len(doc.Events) > 0 {
		// Anything that is not an array means no events.
		_ = json.Unmarshal(doc.Events, &rawEvents)
	}

	scale := defaultString(doc.Scale, "jaar")
	direction := "horizontal"
	if doc.Direction == "boven-naar-beneden" {
		direction = "vertical"
	}

	var events []TimelineEvent
	var placements []string
	for _, raw := range rawEvents {
		var ev timelineEventDocument
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		date, ok := ParseDate(ev.Date)
		if !ok {
			continue
		}
		events = append(events, TimelineEvent{
			Date:        date,
			Meta:        formatEventMeta(date, scale),
			Title:       ev.Title,
			Subtitle:    ev.Subtitle,
			Description: ev.Description,
			Position:    ratio(date, start, end),
			ImageURL:    src.ResolveURL(ev.ImageURL),
			LinkURL:     src.ResolveURL(ev.LinkURL),
		})
		placements = append(placements, ev.Placement)
	}
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return events[a].Date.Compare(events[b].Date) })
	sorted := make([]TimelineEvent, len(events))
	for idx, i := range order {
		sorted[idx] = events[i]
		sorted[idx].Side = sideForEvent(direction, placements[i], idx)
	}

	view := TimelineView{
		Title:       defaultString(doc.Title, TimelineDefinition.Title),
		Subtitle:    fmt.Sprintf("%s – %s · schaal: %s", formatDay(start), formatDay(end), scale),
		Intro:       strings.TrimSpace(doc.Intro),
		Direction:   direction,
		Scale:       scale,
		Ticks:       Ticks(start, end, scale),
		Events:      sorted,
		MinWidthPx:  positivePx(doc.Viewport.MinWidthPx),
		MinHeightPx: positivePx(doc.Viewport.MinHeightPx),
	}
	if len(sorted) == 0 {
		view.Status = "Geen momenten gevonden op de tijdlijn."
	}
	return &Timeline{identity: identity, view: view}, nil
}

func positivePx(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return int(math.Trunc(v))
}

func ratio(t, start, end time.Time) float64 {
	r := float64(t.Sub(start)) / float64(end.Sub(start))
	return math.Max(0, math.Min(1, r))
}

func sideForEvent(direction, placement string, idx int) string {
	if direction == "horizontal" {
		switch placement {
		case "boven":
			return "top"
		case "onder":
			return "bottom"
		}
		if idx%2 == 0 {
			return "top"
		}
		return "bottom"
	}
	switch placement {
	case "links":
		return "left"
	case "rechts":
		return "right"
	}
	if idx%2 == 0 {
		return "left"
	}
	return "right"
}

func yearStep(scale string) int {
	switch scale {
	case "jaar":
		return 1
	case "2 jaar":
		return 2
	case "3 jaar":
		return 3
	case "4 jaar":
		return 4
	case "5 jaar":
		return 5
	case "decennium":
		return 10
	}
	return 0
}

func addUnit(t time.Time, scale string) time.Time {
	switch scale {
	case "uur":
		return t.Add(time.Hour)
	case "dag":
		return t.AddDate(0, 0, 1)
	case "maand":
		return t.AddDate(0, 1, 0)
	case "kwartaal":
		return t.AddDate(0, 3, 0)
	}
	return t.AddDate(yearStep(scale), 0, 0)
}

// Ticks lists axis ticks from start to end, thinned to at most maxTicks.
func Ticks(start, end time.Time, scale string) []TimelineTick {
	var all []time.Time
	cur := start
	for i := 0; i < maxTickIterations && !cur.After(end); i++ {
		all = append(all, cur)
		next := addUnit(cur, scale)
		if next.Equal(cur) {
			break
		}
		cur = next
	}
	step := 1
	if len(all) > maxTicks {
		step = (len(all) + maxTicks - 1) / maxTicks
	}
	var ticks []TimelineTick
	for i := 0; i < len(all); i += step {
		ticks = append(ticks, TimelineTick{Position: ratio(all[i], start, end), Label: tickLabel(all[i], scale)})
	}
	return ticks
}

func tickLabel(t time.Time, scale string) string {
	switch scale {
	case "kwartaal":
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	case "decennium":
		return fmt.Sprintf("%ds", t.Year()/10*10)
	case "uur":
		return fmt.Sprintf("%02d %s %02d:%02d", t.Day(), dutchMonths[t.Month()-1], t.Hour(), t.Minute())
	case "dag":
		return fmt.Sprintf("%02d %s", t.Day(), dutchMonths[t.Month()-1])
	case "maand":
		return fmt.Sprintf("%s %d", dutchMonths[t.Month()-1], t.Year())
	}
	return fmt.Sprint(t.Year())
}

func formatDay(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), dutchMonths[t.Month()-1], t.Year())
}

func formatEventMeta(t time.Time, scale string) string {
	switch {
	case scale == "uur":
		return fmt.Sprintf("%s %02d:%02d", formatDay(t), t.Hour(), t.Minute())
	case scale == "dag":
		return formatDay(t)
	case scale == "maand":
		return fmt.Sprintf("%s %d", dutchMonthsLong[t.Month()-1], t.Year())
	case yearStep(scale) > 0:
		return fmt.Sprint(t.Year())
	}
	return fmt.Sprintf("%s %d", dutchMonths[t.Month()-1], t.Year())
}

// AssignLanes puts each item, given in axis order, in the first lane whose
// last item ends more than gap before it starts.
func AssignLanes(positions, sizes []float64, gap float64) []int {
	var lanes []float64
	out := make([]int, len(positions))
	for i, pos := range positions {
		start, end := pos-sizes[i]/2, pos+sizes[i]/2
		lane := -1
		for l, laneEnd := range lanes {
			if start > laneEnd+gap {
				lane = l
				lanes[l] = end
				break
			}
		}
		if lane < 0 {
			lane = len(lanes)
			lanes = append(lanes, end)
		}
		out[i] = lane
	}
	return out
}

func (t *Timeline) Title() string {
	return t.view.Title
}

func (t *Timeline) Identity() completion.Identity {
	return t.identity
}

func (t *Timeline) View() any {
	return t.view
}

func (t *Timeline) Check(json.RawMessage) (exercise.Result, error) {
	return exercise.Result{}, exercise.ErrNotGradable
}
