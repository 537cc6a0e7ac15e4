package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

const orderingDocumentJSON = `{
	"title": "Levenscyclus",
	"items": [
		{"id": "ei", "text": "Ei"},
		{"id": "rups", "text": "Rups"},
		{"id": "pop", "text": "Pop"},
		{"id": "vlinder", "text": "Vlinder"}
	]
}`

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantErr  bool
	}{
		{name: "valid", document: orderingDocumentJSON},
		{name: "no items", document: `{"items":[]}`, wantErr: true},
		{name: "duplicate ids", document: `{"items":[{"id":"a","text":"A"},{"id":"a","text":"B"}]}`, wantErr: true},
		{name: "missing text", document: `{"items":[{"id":"a"}]}`, wantErr: true},
		{name: "items of the wrong type", document: `{"items":"a,b"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, OrderingDefinition, exercise.Params{DataURL: "https://example.org/o.json"}, tt.document)
			if tt.wantErr {
				var errs exercise.ValidationErrors
				require.ErrorAs(t, err, &errs)
				assert.NotEmpty(t, errs)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestList(t *testing.T) {
	ex := mustParse(t, OrderingDefinition, exercise.Params{}, orderingDocumentJSON).(*Ordering)
	list := ex.NewList()
	assert.Equal(t, []string{"ei", "rups", "pop", "vlinder"}, list.IDs())

	list.MoveUp(0)
	list.MoveDown(3)
	assert.Equal(t, []string{"ei", "rups", "pop", "vlinder"}, list.IDs())

	list.MoveDown(0)
	assert.Equal(t, []string{"rups", "ei", "pop", "vlinder"}, list.IDs())

	list.MoveTo("vlinder", "rups")
	assert.Equal(t, []string{"vlinder", "rups", "ei", "pop"}, list.IDs())

	list.MoveTo("rups", "pop")
	assert.Equal(t, []string{"vlinder", "ei", "pop", "rups"}, list.IDs())

	list.MoveTo("onbekend", "pop")
	assert.Equal(t, []string{"vlinder", "ei", "pop", "rups"}, list.IDs())

	got := ex.Grade(list)
	assert.False(t, got.Correct)
	assert.Equal(t, completion.Score{Correct: 1, Total: 4}, got.Score)
	assert.Equal(t, OrderingDetails{Marks: []bool{false, false, true, false}}, got.Details)
}

func TestOrdering_Check(t *testing.T) {
	ex := mustParse(t, OrderingDefinition, exercise.Params{}, orderingDocumentJSON)

	got := check(t, ex, `{"order":["ei","rups","pop","vlinder"]}`)
	assert.Equal(t, exercise.Result{
		Correct: true,
		Score:   completion.Score{Correct: 4, Total: 4},
		Message: "Alles staat goed!",
		Details: OrderingDetails{Marks: []bool{true, true, true, true}},
	}, got)

	got = check(t, ex, `{"order":["rups","ei","pop","vlinder"]}`)
	assert.False(t, got.Correct)
	assert.Equal(t, "Nog niet helemaal.", got.Message)
	assert.Equal(t, completion.Score{Correct: 2, Total: 4}, got.Score)

	for _, answer := range []string{
		`{"order":["ei","rups","pop"]}`,
		`{"order":["ei","ei","pop","vlinder"]}`,
		`{"order":["ei","rups","pop","mot"]}`,
		`[]`,
	} {
		_, err := ex.Check([]byte(answer))
		assert.ErrorIs(t, err, exercise.ErrInvalidAnswer, answer)
	}
}

func TestOrdering_Shuffle(t *testing.T) {
	document := `{"shuffle":true,"showCorrectOnCheck":false,"items":[{"id":"1","text":"een"},{"id":"2","text":"twee"},{"id":"3","text":"drie"},{"id":"4","text":"vier"},{"id":"5","text":"vijf"},{"id":"6","text":"zes"}]}`
	params := exercise.Params{UniqueID: "getallen"}
	view := mustParse(t, OrderingDefinition, params, document).View().(OrderingView)
	again := mustParse(t, OrderingDefinition, params, document).View().(OrderingView)
	assert.Equal(t, view, again)
	assert.Len(t, view.Items, 6)

	ex := mustParse(t, OrderingDefinition, params, document)
	got := check(t, ex, `{"order":["1","2","3","4","5","6"]}`)
	assert.True(t, got.Correct)
	assert.Equal(t, OrderingDetails{}, got.Details)
}
