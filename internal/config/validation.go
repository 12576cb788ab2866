package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// structValidator returns the shared validator. Field names in errors use
// koanf keys so messages match what the user wrote in the config file.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate validates the global configuration.
func Validate(config *Config) error {
	loader := NewLoader()
	return loader.Validate(config)
}

// Validate validates the configuration struct tags and the values tags
// cannot express.
func (l *FileLoader) Validate(config *Config) error {
	if config == nil {
		return NewConfigError(ConfigValidationFailed, "", "configuration cannot be nil")
	}

	if err := structValidator().Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return NewConfigErrorWithField(ConfigValidationFailed, "", fieldPath(fe.Namespace()), describe(fe))
		}
		return NewConfigErrorWithCause(ConfigValidationFailed, "", "invalid configuration", err)
	}

	if _, err := config.Location(); err != nil {
		e := NewConfigErrorWithField(ConfigValidationFailed, "", "manifest.timezone", "unknown time zone")
		e.Cause = err
		return e
	}

	return nil
}

// Location returns the time zone manifest times are rendered in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Manifest.Timezone)
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "numeric":
		return fmt.Sprintf("must be numeric, got %q", fmt.Sprint(fe.Value()))
	case "url":
		return fmt.Sprintf("must be a valid URL, got %q", fmt.Sprint(fe.Value()))
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
