package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/procspawn/errors"
)

var (
	validate *validator.Validate
	once     sync.Once

	messagesMu sync.RWMutex
	messages   = map[string]string{}
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use json tag names for field names in error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return toSnakeCase(fld.Name)
			}
			return name
		})
	})
	return validate
}

// RegisterValidation adds a custom tag. message is used in error output for
// fields failing the tag. Call it from an init function: registration is not
// safe to run concurrently with validation.
func RegisterValidation(tag string, fn validator.Func, message string) {
	if err := getValidator().RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
	setMessage(tag, message)
}

// RegisterStructValidation adds a struct-level rule for the given types.
// Rules report failures with sl.ReportError; tags they use can be given a
// message with RegisterMessage.
func RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	getValidator().RegisterStructValidation(fn, types...)
}

// RegisterMessage sets the human-readable message for a tag reported by a
// struct-level rule.
func RegisterMessage(tag, message string) {
	setMessage(tag, message)
}

func setMessage(tag, message string) {
	messagesMu.Lock()
	defer messagesMu.Unlock()
	messages[tag] = message
}

// Validate validates a struct using struct tags.
// Uses tags like `validate:"required,min=1,dir"`.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed").WithCause(err)
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	msgs := make([]string, 0, len(validationErrors))

	for _, e := range validationErrors {
		fieldName := fieldPath(e)
		message := formatValidationError(e)
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fieldName,
			Message: message,
		})
		msgs = append(msgs, fieldName+": "+message)
	}

	appErr := errors.Validation(strings.Join(msgs, "; "))
	appErr.Details = map[string]any{
		"fields": fieldErrors,
	}

	return appErr
}

// fieldPath strips the top-level struct name from the namespace so nested
// and indexed fields read as "env[1]" rather than "Command.env[1]".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	messagesMu.RLock()
	msg, ok := messages[e.Tag()]
	messagesMu.RUnlock()
	if ok {
		return msg
	}

	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return "must have at least " + e.Param() + " items"
		}
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "dir":
		return "must be an existing directory"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}

// toSnakeCase converts a field name to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32) // lowercase
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
