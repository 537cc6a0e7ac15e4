package tool

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

// Base is a number base the converter reads or writes.
type Base string

const (
	BaseBin Base = "bin"
	BaseDec Base = "dec"
	BaseHex Base = "hex"
)

var baseDigits = map[Base]*regexp.Regexp{
	BaseBin: regexp.MustCompile(`^[01]+$`),
	BaseDec: regexp.MustCompile(`^[0-9]+$`),
	BaseHex: regexp.MustCompile(`^[0-9A-F]+$`),
}

var baseRadix = map[Base]int{BaseBin: 2, BaseDec: 10, BaseHex: 16}

var NumberBaseDefinition = exercise.Definition{
	ID:           "bin-hex-dec-reken",
	Version:      "v1",
	Title:        "Bin/Hex/Dec Reken",
	Requirements: exercise.Requirements{UniqueID: true, UniqueIDFromData: true},
}

type numberBaseDocument struct {
	Title    string     `json:"title"`
	Input    string     `json:"input"`
	Output   string     `json:"output"`
	ByteSize flexString `json:"byte_size"`
	Getal    flexString `json:"getal"`
	Preview  bool       `json:"preview"`
	UniqueID string     `json:"unique_id"`
}

// NumberBase asks to convert one number between bases.
type NumberBase struct {
	identity completion.Identity
	title    string
	input    Base
	output   Base
	width    int
	preview  bool
	value    *big.Int
	max      *big.Int
}

func parseNumberBase(src exercise.Source) (exercise.Exercise, error) {
	var doc numberBaseDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}

	var errs exercise.ValidationErrors
	input, ok := parseBase(doc.Input)
	if !ok {
		errs.Add("input", "must be one of bin, dec, hex")
	}
	output, ok := parseBase(doc.Output)
	if !ok {
		errs.Add("output", "must be one of bin, dec, hex")
	}
	width, err := strconv.Atoi(strings.TrimSpace(doc.ByteSize.Value))
	if err != nil || !exercise.IsSupportedWidth(width) {
		errs.Add("byte_size", "must be one of %v", exercise.SupportedWidths)
	}
	if strings.TrimSpace(doc.Getal.Value) == "" {
		errs.Add("getal", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	value, err := ParseNumber(doc.Getal.Value, input)
	if err != nil {
		errs.Add("getal", "%v", err)
		return nil, errs
	}
	if !exercise.FitsWidth(value, width) {
		errs.Add("getal", "does not fit in %d bits", width)
		return nil, errs
	}

	identity := identityFor(NumberBaseDefinition, src, doc.UniqueID)
	if err := requireUniqueID(identity); err != nil {
		return nil, err
	}
	return &NumberBase{
		identity: identity,
		title:    defaultString(doc.Title, NumberBaseDefinition.Title),
		input:    input,
		output:   output,
		width:    width,
		preview:  doc.Preview,
		value:    value,
		max:      exercise.MaxValue(width),
	}, nil
}

func parseBase(s string) (Base, bool) {
	base := Base(strings.ToLower(strings.TrimSpace(s)))
	_, ok := baseRadix[base]
	return base, ok
}

// NormalizeNumber strips whitespace, underscores and base prefixes.
func NormalizeNumber(raw string, base Base) string {
	token := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	lower := strings.ToLower(token)
	switch {
	case base == BaseHex && strings.HasPrefix(lower, "0x"):
		token = token[2:]
	case base == BaseBin && strings.HasPrefix(lower, "0b"):
		token = token[2:]
	}
	return strings.ToUpper(token)
}

// ParseNumber reads raw in base.
func ParseNumber(raw string, base Base) (*big.Int, error) {
	token := NormalizeNumber(raw, base)
	if token == "" {
		return nil, fmt.Errorf("empty input")
	}
	if !baseDigits[base].MatchString(token) {
		return nil, fmt.Errorf("invalid %s input %q", strings.ToUpper(string(base)), raw)
	}
	value, ok := new(big.Int).SetString(token, baseRadix[base])
	if !ok {
		return nil, fmt.Errorf("invalid %s input %q", strings.ToUpper(string(base)), raw)
	}
	return value, nil
}

// FormatNumber writes value in base, left padded to the width when padded.
func FormatNumber(value *big.Int, base Base, width int, padded bool) string {
	switch base {
	case BaseBin:
		s := value.Text(2)
		if padded {
			return leftPad(s, width)
		}
		return s
	case BaseHex:
		s := strings.ToUpper(value.Text(16))
		if padded {
			return leftPad(s, (width+3)/4)
		}
		return s
	default:
		return value.Text(10)
	}
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// SlotCount is the number of answer positions for a base and width.
func SlotCount(base Base, width int) int {
	switch base {
	case BaseBin:
		return width
	case BaseHex:
		return (width + 3) / 4
	default:
		return len(exercise.MaxValue(width).Text(10))
	}
}

func (n *NumberBase) Title() string {
	return n.title
}

func (n *NumberBase) Identity() completion.Identity {
	return n.identity
}

type NumberBaseView struct {
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	ChallengeLabel string `json:"challengeLabel"`
	Source         string `json:"source"`
	Input          Base   `json:"input"`
	Output         Base   `json:"output"`
	ByteSize       int    `json:"byteSize"`
	Slots          int    `json:"slots"`
	Preview        bool   `json:"preview"`
	Status         string `json:"status"`
}

func (n *NumberBase) View() any {
	slots := SlotCount(n.output, n.width)
	status := fmt.Sprintf("Gebruik exact %d posities. Posities lopen van %d (links) naar 0 (rechts).", slots, slots-1)
	if n.output == BaseDec {
		status = fmt.Sprintf("Gebruik de toetsen. Posities lopen van %d (links) naar 0 (rechts).", slots-1)
	}
	return NumberBaseView{
		Title:          n.title,
		Subtitle:       fmt.Sprintf("%s (%d-bit bereik)", n.title, n.width),
		ChallengeLabel: fmt.Sprintf("Zet dit %s getal om naar %s:", strings.ToUpper(string(n.input)), strings.ToUpper(string(n.output))),
		Source:         FormatNumber(n.value, n.input, n.width, n.input != BaseDec),
		Input:          n.input,
		Output:         n.output,
		ByteSize:       n.width,
		Slots:          slots,
		Preview:        n.preview,
		Status:         status,
	}
}

// NumberPreview is the live conversion of a partial answer.
type NumberPreview struct {
	Bin  string `json:"bin"`
	Dec  string `json:"dec"`
	Hex  string `json:"hex"`
	Note string `json:"note"`
}

func (n *NumberBase) Preview(answer string) NumberPreview {
	if answer == "" {
		return NumberPreview{Bin: "-", Dec: "-", Hex: "-", Note: "Typ een waarde om live conversie te zien."}
	}
	value, err := ParseNumber(answer, n.output)
	if err != nil {
		return NumberPreview{Bin: "-", Dec: "-", Hex: "-", Note: "Ongeldige invoer."}
	}
	if value.Cmp(n.max) > 0 {
		return NumberPreview{Bin: "-", Dec: "-", Hex: "-", Note: fmt.Sprintf("Waarde valt buiten %d-bit bereik.", n.width)}
	}
	return NumberPreview{
		Bin:  FormatNumber(value, BaseBin, n.width, true),
		Dec:  value.Text(10),
		Hex:  FormatNumber(value, BaseHex, n.width, true),
		Note: fmt.Sprintf("Invoer gelezen als %s.", strings.ToUpper(string(n.output))),
	}
}

type NumberBaseAnswer struct {
	Answer string `json:"answer"`
}

type NumberBaseDetails struct {
	Label string `json:"label"`
}

func (n *NumberBase) Check(raw json.RawMessage) (exercise.Result, error) {
	var answer NumberBaseAnswer
	if err := exercise.DecodeAnswer(raw, &answer); err != nil {
		return exercise.Result{}, err
	}
	wrong := func(message string) (exercise.Result, error) {
		return exercise.Result{
			Score:   completion.Score{Correct: 0, Total: 1},
			Message: message,
			Details: NumberBaseDetails{Label: "Niet correct"},
		}, nil
	}

	if strings.TrimSpace(answer.Answer) == "" {
		return exercise.Result{
			Score:   completion.Score{Correct: 0, Total: 1},
			Message: "Voer eerst een antwoord in.",
			Details: NumberBaseDetails{Label: "Nog geen invoer"},
		}, nil
	}
	value, err := ParseNumber(answer.Answer, n.output)
	if err != nil {
		return wrong("Invoer bevat ongeldige tekens.")
	}
	if value.Cmp(n.max) > 0 {
		return wrong(fmt.Sprintf("Waarde valt buiten %d-bit bereik.", n.width))
	}
	slots := SlotCount(n.output, n.width)
	if n.output != BaseDec && len(NormalizeNumber(answer.Answer, n.output)) != slots {
		return wrong(fmt.Sprintf("Gebruik exact %d posities voor %s.", slots, strings.ToUpper(string(n.output))))
	}
	if value.Cmp(n.value) != 0 {
		return wrong("Nog niet goed. Probeer opnieuw.")
	}
	return exercise.Result{
		Correct: true,
		Score:   completion.Score{Correct: 1, Total: 1},
		Message: "Goed gedaan. Je omzetting klopt.",
		Details: NumberBaseDetails{Label: "Correct"},
	}, nil
}
