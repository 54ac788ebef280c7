package validate

import (
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
)

// validateByteSize accepts any string humanize can parse, e.g. "4MiB" or "512KB".
// Empty and "0" select the default and always pass.
func validateByteSize(fl validator.FieldLevel) bool {
	_, ok := byteSize(fl.Field())

	return ok
}

// validateByteSizeMin is the "bytesizemin=4KiB" tag.
func validateByteSizeMin(fl validator.FieldLevel) bool {
	return compareByteSize(fl, func(v, limit uint64) bool { return v >= limit })
}

// validateByteSizeMax is the "bytesizemax=1GiB" tag.
func validateByteSizeMax(fl validator.FieldLevel) bool {
	return compareByteSize(fl, func(v, limit uint64) bool { return v <= limit })
}

func compareByteSize(fl validator.FieldLevel, cmp func(v, limit uint64) bool) bool {
	v, ok := byteSize(fl.Field())
	if !ok {
		return false
	}

	if v == 0 {
		return true
	}

	limit, err := humanize.ParseBytes(fl.Param())
	if err != nil {
		return false
	}

	return cmp(v, limit)
}

// byteSize parses field. A zero result means "use the default".
func byteSize(field reflect.Value) (uint64, bool) {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return 0, true
		}

		field = field.Elem()
	}

	s := field.String()
	if s == "" || s == "0" {
		return 0, true
	}

	v, err := humanize.ParseBytes(s)

	return v, err == nil
}
