package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is one rejected field, named by its flag.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors lists every rejected field of a struct.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, "; ")
}

// TranslateErrors turns validator failures into [ValidationErrors]. Other errors pass through.
func TranslateErrors(err error) error {
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors) //nolint:errorlint
	if !ok {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		errs = append(errs, ValidationError{
			Field:   e.Field(),
			Message: message(e),
		})
	}

	return errs
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "gte", "bytesizemin":
		return "must be at least " + e.Param()
	case "bytesizemax":
		return "must be at most " + e.Param()
	case "bytesize":
		return "must be a valid byte size (e.g., '4MiB', '512KB')"
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
