package validator

import (
	"reflect"
	"strings"

	val "github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/hotel-requests/pkg/util/errorutil"
)

var validate *val.Validate

func init() {
	validate = val.New(val.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// ValidateStruct checks the struct tags of data and returns a VALIDATION_FAILED
// error naming every offending field.
func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return toDomainError(err)
	}
	return nil
}

// ValidateVar checks a single value against a tag expression.
func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return toDomainError(err)
	}
	return nil
}

func toDomainError(err error) error {
	fields := fieldMessages(err)
	if len(fields) == 0 {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return apperrors.NewValidationError(message(err), map[string]any{"fields": fields})
}
