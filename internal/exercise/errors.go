package exercise

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrNotGradable      = errors.New("exercise has nothing to check")
	ErrInvalidAnswer    = errors.New("invalid answer payload")
	ErrURLNotAllowed    = errors.New("data URL is not allowed")
)

// ErrorKind classifies why an exercise could not be loaded.
type ErrorKind string

const (
	KindParameter ErrorKind = "parameter"
	KindFetch     ErrorKind = "fetch"
	KindSchema    ErrorKind = "schema"
)

// ConfigError is fatal to one exercise load.
type ConfigError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FetchError reports a non-2xx response for an exercise document.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("HTTP %d while fetching %s", e.StatusCode, e.URL)
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors lists every violated constraint of one document.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Add appends a violation.
func (errs *ValidationErrors) Add(field, format string, args ...any) {
	*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns nil when nothing was added.
func (errs ValidationErrors) Err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// KindOf returns the kind of a ConfigError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind, true
	}
	return "", false
}
