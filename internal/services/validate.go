package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidOption marks command-line option values that fail validation.
var ErrInvalidOption = errors.New("invalid option")

// OptionError describes one rejected option. Flag is the command-line flag
// name without dashes, or the argument name for positional inputs.
type OptionError struct {
	Flag    string
	Message string
}

func (e *OptionError) Error() string {
	return e.Message
}

func (e *OptionError) Is(target error) bool {
	return target == ErrInvalidOption || target == ErrValidation
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func optionValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := field.Tag.Get("flag"); name != "" {
				return name
			}
			return strings.ToLower(field.Name)
		})
	})
	return validate
}

// ValidateOptions checks the `validate` tags on a tool's option struct and
// returns an *OptionError for the first violation. Fields are reported by
// their `flag` tag.
func ValidateOptions(opts any) error {
	err := optionValidator().Struct(opts)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate options: %w", err)
	}
	return optionError(reflect.TypeOf(opts), fieldErrs[0])
}

func optionError(typ reflect.Type, fe validator.FieldError) *OptionError {
	flag := fe.Field()
	name := "--" + flag
	var msg string
	switch fe.Tag() {
	case "required":
		msg = flag + " is required"
	case "oneof":
		msg = fmt.Sprintf("invalid %s %v: must be one of %s", name, quoteValue(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		msg = fmt.Sprintf("%s must be at least %s (got %v)", name, fe.Param(), fe.Value())
	case "gtefield":
		msg = fmt.Sprintf("%s must not be less than --%s (got %v)", name, flagFor(typ, fe.Param()), fe.Value())
	default:
		msg = fmt.Sprintf("invalid %s %v", name, quoteValue(fe.Value()))
	}
	return &OptionError{Flag: flag, Message: msg}
}

func quoteValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

// flagFor returns the flag tag of the named struct field.
func flagFor(typ reflect.Type, field string) string {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ != nil && typ.Kind() == reflect.Struct {
		if f, ok := typ.FieldByName(field); ok {
			if name := f.Tag.Get("flag"); name != "" {
				return name
			}
		}
	}
	return strings.ToLower(field)
}
