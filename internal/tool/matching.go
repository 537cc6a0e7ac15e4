package tool

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

var MatchingDefinition = exercise.Definition{
	ID:      "wat-hoort-bij-wat",
	Version: "v1",
	Title:   "Wat hoort bij wat",
}

type matchingDocument struct {
	Title              string         `json:"title"`
	Pairs              []MatchingPair `json:"pairs" validate:"required,min=1,dive"`
	ShuffleOptions     *bool          `json:"shuffleOptions"`
	ShowCheck          *bool          `json:"showCheck"`
	ShowCorrectOnCheck *bool          `json:"showCorrectOnCheck"`
}

type MatchingPair struct {
	Left  string `json:"left" validate:"required"`
	Right string `json:"right" validate:"required"`
}

type MatchingItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Matching asks to connect every left item to its right item.
type Matching struct {
	identity           completion.Identity
	title              string
	showCheck          bool
	showCorrectOnCheck bool
	left               []MatchingItem
	right              []MatchingItem
	// correctRight is the expected right text per left id.
	correctRight map[string]string
	rightText    map[string]string
}

func parseMatching(src exercise.Source) (exercise.Exercise, error) {
	var doc matchingDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}
	if err := exercise.Validate(doc); err != nil {
		return nil, err
	}

	m := &Matching{
		identity:           identityFor(MatchingDefinition, src, ""),
		title:              defaultString(doc.Title, MatchingDefinition.Title),
		showCheck:          defaultBool(doc.ShowCheck, true),
		showCorrectOnCheck: defaultBool(doc.ShowCorrectOnCheck, true),
		correctRight:       make(map[string]string, len(doc.Pairs)),
		rightText:          make(map[string]string, len(doc.Pairs)),
	}
	rights := make([]string, len(doc.Pairs))
	for i, pair := range doc.Pairs {
		id := "L" + strconv.Itoa(i)
		m.left = append(m.left, MatchingItem{ID: id, Text: pair.Left})
		m.correctRight[id] = pair.Right
		rights[i] = pair.Right
	}
	if defaultBool(doc.ShuffleOptions, true) {
		rights = exercise.Shuffle(src.Rand(MatchingDefinition.ID), rights)
	}
	for i, text := range rights {
		id := "R" + strconv.Itoa(i)
		m.right = append(m.right, MatchingItem{ID: id, Text: text})
		m.rightText[id] = text
	}
	return m, nil
}

func (m *Matching) Title() string {
	return m.title
}

func (m *Matching) Identity() completion.Identity {
	return m.identity
}

type MatchingView struct {
	Title     string         `json:"title"`
	ShowCheck bool           `json:"showCheck"`
	Left      []MatchingItem `json:"left"`
	Right     []MatchingItem `json:"right"`
	Status    string         `json:"status"`
}

func (m *Matching) View() any {
	return MatchingView{
		Title:     m.title,
		ShowCheck: m.showCheck,
		Left:      slices.Clone(m.left),
		Right:     slices.Clone(m.right),
		Status:    "Maak koppelingen door twee rondjes te verbinden. Druk op Esc om te annuleren.",
	}
}

// NewBoard returns a board without connections.
func (m *Matching) NewBoard() *MatchingBoard {
	return &MatchingBoard{
		matching:    m,
		leftToRight: make(map[string]string),
		rightToLeft: make(map[string]string),
	}
}

// MatchingBoard keeps connections one-to-one in both directions.
type MatchingBoard struct {
	matching    *Matching
	leftToRight map[string]string
	rightToLeft map[string]string
}

// Connect links left to right, dropping any earlier link of either side.
func (b *MatchingBoard) Connect(leftID, rightID string) error {
	if _, ok := b.matching.correctRight[leftID]; !ok {
		return fmt.Errorf("%w: unknown left item %q", exercise.ErrInvalidAnswer, leftID)
	}
	if _, ok := b.matching.rightText[rightID]; !ok {
		return fmt.Errorf("%w: unknown right item %q", exercise.ErrInvalidAnswer, rightID)
	}
	b.DisconnectLeft(leftID)
	b.DisconnectRight(rightID)
	b.leftToRight[leftID] = rightID
	b.rightToLeft[rightID] = leftID
	return nil
}

func (b *MatchingBoard) DisconnectLeft(leftID string) {
	if rightID, ok := b.leftToRight[leftID]; ok {
		delete(b.rightToLeft, rightID)
	}
	delete(b.leftToRight, leftID)
}

func (b *MatchingBoard) DisconnectRight(rightID string) {
	if leftID, ok := b.rightToLeft[rightID]; ok {
		delete(b.leftToRight, leftID)
	}
	delete(b.rightToLeft, rightID)
}

// Connections returns the right id per connected left id.
func (b *MatchingBoard) Connections() map[string]string {
	out := make(map[string]string, len(b.leftToRight))
	for k, v := range b.leftToRight {
		out[k] = v
	}
	return out
}

type MatchingAnswer struct {
	// Connections maps left ids to right ids.
	Connections map[string]string `json:"connections"`
}

type MatchingDetails struct {
	CorrectCount int             `json:"correctCount"`
	Total        int             `json:"total"`
	PerLeft      map[string]bool `json:"perLeft,omitempty"`
}

func (m *Matching) Check(raw json.RawMessage) (exercise.Result, error) {
	var answer MatchingAnswer
	if err := exercise.DecodeAnswer(raw, &answer); err != nil {
		return exercise.Result{}, err
	}
	board := m.NewBoard()
	lefts := make([]string, 0, len(answer.Connections))
	for leftID := range answer.Connections {
		lefts = append(lefts, leftID)
	}
	slices.Sort(lefts)
	for _, leftID := range lefts {
		if err := board.Connect(leftID, answer.Connections[leftID]); err != nil {
			return exercise.Result{}, err
		}
	}
	return m.Grade(board), nil
}

// Grade counts left items connected to a right item with the expected text.
// Duplicate right texts are interchangeable.
func (m *Matching) Grade(board *MatchingBoard) exercise.Result {
	details := MatchingDetails{Total: len(m.left)}
	perLeft := make(map[string]bool, len(m.left))
	for _, left := range m.left {
		rightID, ok := board.leftToRight[left.ID]
		correct := ok && m.rightText[rightID] == m.correctRight[left.ID]
		perLeft[left.ID] = correct
		if correct {
			details.CorrectCount++
		}
	}
	if m.showCorrectOnCheck {
		details.PerLeft = perLeft
	}
	return exercise.Result{
		Correct: details.CorrectCount == details.Total,
		Score:   completion.Score{Correct: details.CorrectCount, Total: details.Total},
		Message: fmt.Sprintf("%d van %d goed", details.CorrectCount, details.Total),
		Details: details,
	}
}
