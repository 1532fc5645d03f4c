package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required": "{field} is required",
	"gte":      "{field} must be greater than or equal to {param}",
	"lte":      "{field} must be less than or equal to {param}",
	"oneof":    "{field} must be one of {param}",
	"max":      "{field} must be at most {param} characters",
	"min":      "{field} must be at least {param} characters",
	"email":    "{field} must be a valid email address",
}

func render(fe val.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return fe.Error()
	}
	out := strings.ReplaceAll(tmpl, "{field}", fe.Field())
	return strings.ReplaceAll(out, "{param}", fe.Param())
}

// message returns the first field error in readable form.
func message(err error) string {
	var valErrors val.ValidationErrors
	if errors.As(err, &valErrors) && len(valErrors) > 0 {
		return render(valErrors[0])
	}
	return err.Error()
}

func fieldMessages(err error) map[string]string {
	var valErrors val.ValidationErrors
	if !errors.As(err, &valErrors) {
		return nil
	}
	out := make(map[string]string, len(valErrors))
	for _, fe := range valErrors {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = render(fe)
		}
	}
	return out
}
