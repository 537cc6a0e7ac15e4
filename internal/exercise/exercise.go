// Package exercise implements the shared bootstrap of every learning tool:
// parameter checks, fetching the data document, validating it into a typed
// configuration and grading answers.
package exercise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/metrics"
)

// Result is the outcome of one check.
type Result struct {
	Correct bool             `json:"correct"`
	Score   completion.Score `json:"score"`
	Message string           `json:"message"`
	// Details holds tool specific feedback such as per-slot marks.
	Details any `json:"details,omitempty"`
}

// Exercise is a loaded, validated instance of a tool.
type Exercise interface {
	Title() string
	// View is the JSON-serializable state a widget renders from.
	View() any
	// Check grades an answer. Display-only tools return ErrNotGradable.
	Check(answer json.RawMessage) (Result, error)
}

// Source is what a tool is loaded from.
type Source struct {
	Params Params
	// Document is the raw JSON behind Params.DataURL.
	Document []byte
}

// ResolveURL resolves a reference inside the document against the data URL.
func (s Source) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base, err := url.Parse(s.Params.DataURL)
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

// Definition describes one tool version.
type Definition struct {
	ID           string
	Version      string
	Title        string
	Requirements Requirements
	Parse        func(src Source) (Exercise, error)
}

// Load runs parameters, fetch and parse. Any failure is a ConfigError and no
// exercise is returned.
func Load(ctx context.Context, fetcher Fetcher, def Definition, params Params) (Exercise, error) {
	exercise, err := load(ctx, fetcher, def, params)
	if err != nil {
		kind, _ := KindOf(err)
		metrics.ConfigErrors.WithLabelValues(def.ID, string(kind)).Inc()
		slog.Default().Warn("failed to load exercise",
			"tool", def.ID,
			"version", def.Version,
			"data", params.DataURL,
			"kind", kind,
			"error", err,
		)
		return nil, err
	}
	return exercise, nil
}

func load(ctx context.Context, fetcher Fetcher, def Definition, params Params) (Exercise, error) {
	if err := params.Check(def.Requirements); err != nil {
		return nil, &ConfigError{Kind: KindParameter, Err: err}
	}

	var document []byte
	if params.DataURL != "" {
		data, err := fetcher.Fetch(ctx, params.DataURL)
		if err != nil {
			if errors.Is(err, ErrURLNotAllowed) {
				return nil, &ConfigError{Kind: KindParameter, Err: err}
			}
			return nil, &ConfigError{Kind: KindFetch, Err: err}
		}
		document = data
	}

	exercise, err := def.Parse(Source{Params: params, Document: document})
	if err != nil {
		if errors.Is(err, ErrMissingParameter) {
			return nil, &ConfigError{Kind: KindParameter, Err: err}
		}
		return nil, &ConfigError{Kind: KindSchema, Err: err}
	}
	return exercise, nil
}

// Decode unmarshals a document, reporting syntax errors as schema errors.
func Decode(document []byte, v any) error {
	if len(strings.TrimSpace(string(document))) == 0 {
		return ValidationErrors{{Message: "document is empty"}}
	}
	if err := json.Unmarshal(document, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ValidationErrors{{Field: typeErr.Field, Message: fmt.Sprintf("must be of type %s", typeErr.Type)}}
		}
		return fmt.Errorf("json.Unmarshal() > %w", err)
	}
	return nil
}

// DecodeAnswer unmarshals an answer payload.
func DecodeAnswer(answer json.RawMessage, v any) error {
	if err := json.Unmarshal(answer, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	return nil
}

// NewRand returns a generator seeded from the instance so repeated loads of
// one instance shuffle identically.
func NewRand(seed string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](r *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Rand returns the instance generator of a tool.
func (s Source) Rand(toolID string) *rand.Rand {
	return NewRand(toolID + "|" + s.Params.InstanceKey() + "|" + s.Params.DataURL)
}
