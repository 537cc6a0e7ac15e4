package tool

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

var TypingDefinition = exercise.Definition{
	ID:      "digitaal-bericht",
	Version: "v1",
	Title:   "Digitaal bericht",
}

const (
	defaultMistakeRate = 0.035
	maxMistakeRate     = 0.25
	minSpeed           = 0.2
	maxSpeed           = 3
)

type typingDocument struct {
	Text        string   `json:"text"`
	Message     string   `json:"message"`
	Speed       *float64 `json:"speed"`
	Mistakes    *bool    `json:"mistakes"`
	MistakeRate *float64 `json:"mistake_rate"`
	Cursor      *bool    `json:"cursor"`
	Title       string   `json:"title"`
}

// Typing replays a message as if it were typed live.
type Typing struct {
	identity    completion.Identity
	title       string
	text        string
	speed       float64
	mistakes    bool
	mistakeRate float64
	cursor      bool
	newRand     func() *rand.Rand
}

func parseTyping(src exercise.Source) (exercise.Exercise, error) {
	var doc typingDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}
	text := doc.Text
	if text == "" {
		text = doc.Message
	}
	if text == "" {
		var errs exercise.ValidationErrors
		errs.Add("text", `is required (expected {"text": "..."})`)
		return nil, errs
	}

	speed := 1.0
	if doc.Speed != nil && *doc.Speed != 0 && !math.IsNaN(*doc.Speed) {
		speed = *doc.Speed
	}
	rate := defaultMistakeRate
	if doc.MistakeRate != nil && *doc.MistakeRate != 0 && !math.IsNaN(*doc.MistakeRate) {
		rate = *doc.MistakeRate
	}
	return &Typing{
		identity:    identityFor(TypingDefinition, src, ""),
		title:       strings.TrimSpace(doc.Title),
		text:        text,
		speed:       clamp(speed, minSpeed, maxSpeed),
		mistakes:    defaultBool(doc.Mistakes, true),
		mistakeRate: clamp(rate, 0, maxMistakeRate),
		cursor:      defaultBool(doc.Cursor, true),
		newRand:     func() *rand.Rand { return src.Rand(TypingDefinition.ID) },
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

type KeystrokeKind string

const (
	KeyChar      KeystrokeKind = "char"
	KeyBackspace KeystrokeKind = "backspace"
)

// Keystroke is one step of the typing script; DelayMs is the pause after it.
type Keystroke struct {
	Kind    KeystrokeKind `json:"kind"`
	Char    string        `json:"char,omitempty"`
	DelayMs int           `json:"delayMs"`
}

type typingToken struct {
	backspace bool
	char      rune
}

// tokenize reads "|" as backspace and "||" as a literal pipe.
func tokenize(text string) []typingToken {
	runes := []rune(text)
	var tokens []typingToken
	for i := 0; i < len(runes); i++ {
		if runes[i] != '|' {
			tokens = append(tokens, typingToken{char: runes[i]})
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '|' {
			tokens = append(tokens, typingToken{char: '|'})
			i++
			continue
		}
		tokens = append(tokens, typingToken{backspace: true})
	}
	return tokens
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func baseDelay(r rune) float64 {
	switch {
	case r == ' ':
		return 14
	case r == '\n':
		return 180
	case strings.ContainsRune(".,;:!?", r):
		return 120
	case strings.ContainsRune("()[]{}", r):
		return 85
	case r >= '0' && r <= '9':
		return 70
	}
	return 55
}

func (t *Typing) delay(r *rand.Rand, ch rune) int {
	base := baseDelay(ch)
	jitter := (r.Float64() - 0.5) * base * 0.9
	return max(8, int(math.Round((base+jitter)/t.speed)))
}

func (t *Typing) backspaceDelay(r *rand.Rand) int {
	return max(18, int(float64(t.delay(r, 'x'))*0.7))
}

// Script produces the keystrokes, including typo and correction pairs.
func (t *Typing) Script(r *rand.Rand) []Keystroke {
	var script []Keystroke
	for _, token := range tokenize(t.text) {
		if token.backspace {
			script = append(script, Keystroke{Kind: KeyBackspace, DelayMs: t.backspaceDelay(r)})
			continue
		}
		if t.mistakes && isASCIILetter(token.char) && r.Float64() < t.mistakeRate {
			wrong := rune('a' + r.IntN(26))
			script = append(script,
				Keystroke{Kind: KeyChar, Char: string(wrong), DelayMs: t.delay(r, wrong)},
				Keystroke{Kind: KeyBackspace, DelayMs: t.backspaceDelay(r)},
			)
		}
		script = append(script, Keystroke{Kind: KeyChar, Char: string(token.char), DelayMs: t.delay(r, token.char)})
	}
	return script
}

// Replay returns the text on screen after the script ran.
func Replay(script []Keystroke) string {
	var out []rune
	for _, k := range script {
		switch k.Kind {
		case KeyBackspace:
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case KeyChar:
			out = append(out, []rune(k.Char)...)
		}
	}
	return string(out)
}

func (t *Typing) Title() string {
	return defaultString(t.title, TypingDefinition.Title)
}

func (t *Typing) Identity() completion.Identity {
	return t.identity
}

type TypingView struct {
	Meta   string      `json:"meta"`
	Cursor bool        `json:"cursor"`
	Script []Keystroke `json:"script"`
	Final  string      `json:"final"`
	Hint   string      `json:"hint"`
}

func (t *Typing) View() any {
	// Same instance, same script.
	script := t.Script(t.newRand())
	return TypingView{
		Meta:   t.title,
		Cursor: t.cursor,
		Script: script,
		Final:  Replay(script),
		Hint:   "Klaar.",
	}
}

func (t *Typing) Check(json.RawMessage) (exercise.Result, error) {
	return exercise.Result{}, exercise.ErrNotGradable
}
