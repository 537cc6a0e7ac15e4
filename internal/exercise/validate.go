package exercise

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
	translator    ut.Translator
	validatorErr  error
)

func schemaValidator() (*validator.Validate, ut.Translator, error) {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ := uni.GetTranslator("en")
		if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
			validatorErr = fmt.Errorf("failed to register default translations: %w", err)
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate, translator = v, trans
	})
	return validate, translator, validatorErr
}

// Validate checks struct tags and returns every violation with its JSON path.
func Validate(v any) error {
	validate, trans, err := schemaValidator()
	if err != nil {
		return err
	}
	err = validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	var errs ValidationErrors
	for _, fe := range fieldErrors {
		errs = append(errs, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: fe.Translate(trans),
		})
	}
	return errs
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// ValidatePositions accepts exactly the set {1..n} in any order.
func ValidatePositions(positions []int) error {
	if len(positions) == 0 {
		return errors.New("no positions")
	}
	sorted := slices.Clone(positions)
	slices.Sort(sorted)
	for i, p := range sorted {
		if p < 1 {
			return fmt.Errorf("position %d must be 1 or greater", p)
		}
		if i > 0 && sorted[i-1] == p {
			return fmt.Errorf("position %d is used more than once", p)
		}
		if p != i+1 {
			return fmt.Errorf("positions must run from 1 to %d without gaps, missing %d", len(sorted), i+1)
		}
	}
	return nil
}

// SupportedWidths are the bit widths a numeric exercise may declare.
var SupportedWidths = []int{4, 8, 16, 32, 64, 128, 256}

func IsSupportedWidth(width int) bool {
	return slices.Contains(SupportedWidths, width)
}

// MaxValue returns 2^width - 1.
func MaxValue(width int) *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return max.Sub(max, big.NewInt(1))
}

// FitsWidth reports whether 0 <= value <= 2^width - 1.
func FitsWidth(value *big.Int, width int) bool {
	return value.Sign() >= 0 && value.Cmp(MaxValue(width)) <= 0
}
