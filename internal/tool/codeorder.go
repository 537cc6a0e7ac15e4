package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

var CodeOrderDefinition = exercise.Definition{
	ID:           "code-in-volgorde-zetten",
	Version:      "v1",
	Title:        "Code in volgorde zetten",
	Requirements: exercise.Requirements{UniqueID: true},
}

var (
	ErrUnknownLine = errors.New("unknown line")
	ErrSlotRange   = errors.New("slot out of range")
)

type codeOrderDocument struct {
	ToolTitle          string          `json:"toolTitle"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Shuffle            *bool           `json:"shuffle"`
	ShowCheck          *bool           `json:"showCheck"`
	ShowCorrectOnCheck *bool           `json:"showCorrectOnCheck"`
	Regels             json.RawMessage `json:"regels"`
}

type codeLineDocument struct {
	ID      string      `json:"id"`
	Code    *string     `json:"code"`
	Positie optionalInt `json:"positie"`
}

// CodeLine is one line of code; lines without a position are distractors.
type CodeLine struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Position int    `json:"-"`
}

// CodeOrder asks to put lines of code in the right order.
type CodeOrder struct {
	identity           completion.Identity
	title              string
	description        string
	showCheck          bool
	showCorrectOnCheck bool
	lines              map[string]CodeLine
	correctOrder       []string
	pool               []string
}

func parseCodeOrder(src exercise.Source) (exercise.Exercise, error) {
	var doc codeOrderDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}

	var errs exercise.ValidationErrors
	var rawLines []json.RawMessage
	if err := json.Unmarshal(doc.Regels, &rawLines); err != nil || rawLines == nil {
		errs.Add("regels", "must be an array")
		return nil, errs
	}

	lines := make(map[string]CodeLine, len(rawLines))
	var order []string
	var positioned []CodeLine
	for i, raw := range rawLines {
		field := fmt.Sprintf("regels[%d]", i)
		var doc codeLineDocument
		if err := json.Unmarshal(raw, &doc); err != nil || !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
			errs.Add(field, "must be an object")
			continue
		}
		if doc.Code == nil || strings.TrimSpace(*doc.Code) == "" {
			errs.Add(field+".code", "is required")
			continue
		}
		id := defaultString(doc.ID, fmt.Sprintf("regel-%d", i+1))
		if _, ok := lines[id]; ok {
			errs.Add(field+".id", "duplicate id %q", id)
			continue
		}
		if doc.Positie.Invalid || (doc.Positie.Set && doc.Positie.Value < 1) {
			errs.Add(field+".positie", "must be an integer of 1 or greater")
			continue
		}
		line := CodeLine{ID: id, Code: *doc.Code, Position: doc.Positie.Value}
		lines[id] = line
		order = append(order, id)
		if doc.Positie.Set {
			positioned = append(positioned, line)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if len(positioned) < 2 {
		errs.Add("regels", "needs at least 2 lines with a positie")
		return nil, errs
	}
	positions := make([]int, len(positioned))
	for i, line := range positioned {
		positions[i] = line.Position
	}
	if err := exercise.ValidatePositions(positions); err != nil {
		errs.Add("regels", "%v", err)
		return nil, errs
	}

	slices.SortFunc(positioned, func(a, b CodeLine) int { return a.Position - b.Position })
	correctOrder := make([]string, len(positioned))
	for i, line := range positioned {
		correctOrder[i] = line.ID
	}

	pool := order
	if defaultBool(doc.Shuffle, true) {
		pool = exercise.Shuffle(src.Rand(CodeOrderDefinition.ID), order)
	}

	title := defaultString(doc.ToolTitle, defaultString(doc.Title, CodeOrderDefinition.Title))
	return &CodeOrder{
		identity:           identityFor(CodeOrderDefinition, src, ""),
		title:              title,
		description:        strings.TrimSpace(doc.Description),
		showCheck:          defaultBool(doc.ShowCheck, true),
		showCorrectOnCheck: defaultBool(doc.ShowCorrectOnCheck, true),
		lines:              lines,
		correctOrder:       correctOrder,
		pool:               pool,
	}, nil
}

func (c *CodeOrder) Title() string {
	return c.title
}

func (c *CodeOrder) Identity() completion.Identity {
	return c.identity
}

type CodeOrderView struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ShowCheck   bool       `json:"showCheck"`
	Slots       int        `json:"slots"`
	Pool        []CodeLine `json:"pool"`
}

func (c *CodeOrder) View() any {
	pool := make([]CodeLine, len(c.pool))
	for i, id := range c.pool {
		pool[i] = c.lines[id]
	}
	return CodeOrderView{
		Title:       c.title,
		Description: c.description,
		ShowCheck:   c.showCheck,
		Slots:       len(c.correctOrder),
		Pool:        pool,
	}
}

// NewBoard returns an empty board with every line in the pool.
func (c *CodeOrder) NewBoard() *Board {
	return &Board{
		known: c.lines,
		slots: make([]string, len(c.correctOrder)),
		pool:  slices.Clone(c.pool),
	}
}

// Board holds the slots and the pool of unplaced lines. An empty slot is "".
type Board struct {
	known map[string]CodeLine
	slots []string
	pool  []string
}

func (b *Board) Slots() []string {
	return slices.Clone(b.slots)
}

func (b *Board) Pool() []string {
	return slices.Clone(b.pool)
}

func (b *Board) checkSlot(slot int) error {
	if slot < 0 || slot >= len(b.slots) {
		return fmt.Errorf("%w: %d", ErrSlotRange, slot)
	}
	return nil
}

// PlaceFromPool moves a pool line into a slot. A line already in the slot
// goes back to the pool.
func (b *Board) PlaceFromPool(id string, slot int) error {
	if err := b.checkSlot(slot); err != nil {
		return err
	}
	i := slices.Index(b.pool, id)
	if i < 0 {
		return fmt.Errorf("%w: %q is not in the pool", ErrUnknownLine, id)
	}
	b.pool = slices.Delete(b.pool, i, i+1)
	if displaced := b.slots[slot]; displaced != "" {
		b.pool = append(b.pool, displaced)
	}
	b.slots[slot] = id
	return nil
}

// MoveSlot swaps the contents of two slots.
func (b *Board) MoveSlot(from, to int) error {
	if err := b.checkSlot(from); err != nil {
		return err
	}
	if err := b.checkSlot(to); err != nil {
		return err
	}
	b.slots[from], b.slots[to] = b.slots[to], b.slots[from]
	return nil
}

// ReturnToPool empties a slot.
func (b *Board) ReturnToPool(slot int) error {
	if err := b.checkSlot(slot); err != nil {
		return err
	}
	id := b.slots[slot]
	b.slots[slot] = ""
	if id != "" && !slices.Contains(b.pool, id) {
		b.pool = append(b.pool, id)
	}
	return nil
}

type CodeOrderAnswer struct {
	Slots []string `json:"slots"`
}

type CodeOrderDetails struct {
	Marks        []bool   `json:"marks"`
	CorrectOrder []string `json:"correctOrder,omitempty"`
}

// Check replays the submitted slots onto a fresh board so that only moves a
// learner could make are accepted.
func (c *CodeOrder) Check(raw json.RawMessage) (exercise.Result, error) {
	var answer CodeOrderAnswer
	if err := exercise.DecodeAnswer(raw, &answer); err != nil {
		return exercise.Result{}, err
	}
	if len(answer.Slots) != len(c.correctOrder) {
		return exercise.Result{}, fmt.Errorf("%w: expected %d slots, got %d", exercise.ErrInvalidAnswer, len(c.correctOrder), len(answer.Slots))
	}
	board := c.NewBoard()
	for slot, id := range answer.Slots {
		if id == "" {
			continue
		}
		if err := board.PlaceFromPool(id, slot); err != nil {
			return exercise.Result{}, fmt.Errorf("%w: %v", exercise.ErrInvalidAnswer, err)
		}
	}
	return c.Grade(board), nil
}

// Grade marks every slot against the correct order.
func (c *CodeOrder) Grade(board *Board) exercise.Result {
	total := len(c.correctOrder)
	details := CodeOrderDetails{Marks: make([]bool, total)}
	correct := 0
	for i, want := range c.correctOrder {
		if board.slots[i] == want {
			details.Marks[i] = true
			correct++
		}
	}
	if c.showCorrectOnCheck {
		details.CorrectOrder = slices.Clone(c.correctOrder)
	}

	if correct == total {
		return exercise.Result{
			Correct: true,
			Score:   completion.Score{Correct: total, Total: total},
			Message: "Goed! De code staat in de juiste volgorde.",
			Details: details,
		}
	}
	return exercise.Result{
		Score:   completion.Score{Correct: correct, Total: total},
		Message: fmt.Sprintf("%d van %d regels staan goed.", correct, total),
		Details: details,
	}
}
