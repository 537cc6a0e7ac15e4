package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// fetchHostTag validates one fetch.allowed_hosts entry.
const fetchHostTag = "fetch_host"

// configMessages override the stock English messages. {0} is the dotted
// config key, {1} the rejected value and {2} the tag parameter.
var configMessages = map[string]string{
	"file":       "{0} must be an existing and readable file",
	"oneof":      "{0} must be one of [{2}], got {1}",
	fetchHostTag: "{0} must be a host name or host:port, got {1}",
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(configKey)
	validate.RegisterAlias(fetchHostTag, "hostname_port|hostname_rfc1123")
	if err := validate.RegisterValidation("file", isReadableFile); err != nil {
		return nil, nil, fmt.Errorf("validate.RegisterValidation(file) > %w", err)
	}

	enLocale := en.New()
	trans, ok := ut.New(enLocale, enLocale).GetTranslator(enLocale.Locale())
	if !ok {
		return nil, nil, errors.New("no English translator")
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("enTranslations.RegisterDefaultTranslations() > %w", err)
	}
	for tag, message := range configMessages {
		if err := registerMessage(validate, trans, tag, message); err != nil {
			return nil, nil, fmt.Errorf("registerMessage(%s) > %w", tag, err)
		}
	}
	return validate, trans, nil
}

// configKey names fields after their YAML keys.
func configKey(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func registerMessage(validate *validator.Validate, trans ut.Translator, tag, message string) error {
	return validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, message, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		msg, err := ut.T(tag, key, fmt.Sprint(fe.Value()), fe.Param())
		if err != nil {
			return fe.Error()
		}
		return msg
	})
}

// isReadableFile reports whether the field names a regular file the process can open.
func isReadableFile(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
