package tool

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

var OrderingDefinition = exercise.Definition{
	ID:      "juiste-volgorde",
	Version: "v1",
	Title:   "Juiste volgorde",
}

type orderingDocument struct {
	Title              string         `json:"title"`
	Items              []OrderingItem `json:"items" validate:"required,min=1,unique=ID,dive"`
	Shuffle            bool           `json:"shuffle"`
	ShowCheck          *bool          `json:"showCheck"`
	ShowCorrectOnCheck *bool          `json:"showCorrectOnCheck"`
}

type OrderingItem struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// Ordering asks to sort items into their listed order.
type Ordering struct {
	identity           completion.Identity
	title              string
	showCheck          bool
	showCorrectOnCheck bool
	items              map[string]OrderingItem
	correctOrder       []string
	initial            []string
}

func parseOrdering(src exercise.Source) (exercise.Exercise, error) {
	var doc orderingDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}
	if err := exercise.Validate(doc); err != nil {
		return nil, err
	}

	items := make(map[string]OrderingItem, len(doc.Items))
	correctOrder := make([]string, len(doc.Items))
	for i, item := range doc.Items {
		items[item.ID] = item
		correctOrder[i] = item.ID
	}
	initial := slices.Clone(correctOrder)
	if doc.Shuffle {
		initial = exercise.Shuffle(src.Rand(OrderingDefinition.ID), correctOrder)
	}
	return &Ordering{
		identity:           identityFor(OrderingDefinition, src, ""),
		title:              defaultString(doc.Title, OrderingDefinition.Title),
		showCheck:          defaultBool(doc.ShowCheck, true),
		showCorrectOnCheck: defaultBool(doc.ShowCorrectOnCheck, true),
		items:              items,
		correctOrder:       correctOrder,
		initial:            initial,
	}, nil
}

func (o *Ordering) Title() string {
	return o.title
}

func (o *Ordering) Identity() completion.Identity {
	return o.identity
}

type OrderingView struct {
	Title     string         `json:"title"`
	ShowCheck bool           `json:"showCheck"`
	Items     []OrderingItem `json:"items"`
	Status    string         `json:"status"`
}

func (o *Ordering) View() any {
	items := make([]OrderingItem, len(o.initial))
	for i, id := range o.initial {
		items[i] = o.items[id]
	}
	return OrderingView{
		Title:     o.title,
		ShowCheck: o.showCheck,
		Items:     items,
		Status:    "Sleep of gebruik ▲▼ om te sorteren.",
	}
}

// NewList returns the list in its initial order.
func (o *Ordering) NewList() *List {
	return &List{ids: slices.Clone(o.initial)}
}

// List is the current order of the items.
type List struct {
	ids []string
}

func (l *List) IDs() []string {
	return slices.Clone(l.ids)
}

// MoveUp and MoveDown are no-ops at the edges.
func (l *List) MoveUp(index int) {
	l.move(index, index-1)
}

func (l *List) MoveDown(index int) {
	l.move(index, index+1)
}

func (l *List) move(from, to int) {
	if from < 0 || from >= len(l.ids) || to < 0 || to >= len(l.ids) {
		return
	}
	moved := l.ids[from]
	l.ids = slices.Delete(l.ids, from, from+1)
	l.ids = slices.Insert(l.ids, to, moved)
}

// MoveTo drops the dragged item at the position of the target item.
func (l *List) MoveTo(draggedID, targetID string) {
	if draggedID == targetID {
		return
	}
	from := slices.Index(l.ids, draggedID)
	to := slices.Index(l.ids, targetID)
	if from < 0 || to < 0 {
		return
	}
	l.move(from, to)
}

type OrderingAnswer struct {
	Order []string `json:"order"`
}

type OrderingDetails struct {
	Marks []bool `json:"marks,omitempty"`
}

func (o *Ordering) Check(raw json.RawMessage) (exercise.Result, error) {
	var answer OrderingAnswer
	if err := exercise.DecodeAnswer(raw, &answer); err != nil {
		return exercise.Result{}, err
	}
	want := slices.Sorted(slices.Values(o.correctOrder))
	got := slices.Sorted(slices.Values(answer.Order))
	if !slices.Equal(want, got) {
		return exercise.Result{}, fmt.Errorf("%w: order must contain every item exactly once", exercise.ErrInvalidAnswer)
	}
	return o.Grade(&List{ids: answer.Order}), nil
}

// Grade compares the list with the correct order.
func (o *Ordering) Grade(list *List) exercise.Result {
	total := len(o.correctOrder)
	marks := make([]bool, total)
	correct := 0
	for i, id := range list.ids {
		if id == o.correctOrder[i] {
			marks[i] = true
			correct++
		}
	}
	var details OrderingDetails
	if o.showCorrectOnCheck {
		details.Marks = marks
	}
	if correct == total {
		return exercise.Result{
			Correct: true,
			Score:   completion.Score{Correct: total, Total: total},
			Message: "Alles staat goed!",
			Details: details,
		}
	}
	return exercise.Result{
		Score:   completion.Score{Correct: correct, Total: total},
		Message: "Nog niet helemaal.",
		Details: details,
	}
}
