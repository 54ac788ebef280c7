// Package validate checks configuration structs using go-playground/validator.
package validate

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate //nolint:gochecknoglobals
	once     sync.Once           //nolint:gochecknoglobals
)

// Validator returns the singleton validator instance.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		registerCustomValidators(instance)
		registerTagNameFunc(instance)
	})

	return instance
}

func registerCustomValidators(v *validator.Validate) {
	_ = v.RegisterValidation("bytesize", validateByteSize)
	_ = v.RegisterValidation("bytesizemin", validateByteSizeMin)
	_ = v.RegisterValidation("bytesizemax", validateByteSizeMax)
}

// registerTagNameFunc reports fields by their flag name (the mapstructure key), so a failure reads
// "--batch-size: must be at least 1".
func registerTagNameFunc(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}

		return "--" + name
	})
}

// Struct validates s using the singleton validator.
func Struct(s any) error {
	return TranslateErrors(Validator().Struct(s))
}
