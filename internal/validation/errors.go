package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorBody is the validation error payload shared by every handler.
type ErrorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

// ErrorResponse converts a validator error into a structured response.
// Field names are reported in lower case.
func ErrorResponse(err error) ErrorBody {
	fields := map[string][]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			fields[field] = append(fields[field], fe.Tag())
		}
	}
	if len(fields) == 0 {
		return ErrorBody{Error: err.Error(), Fields: fields}
	}
	return ErrorBody{Error: "validation_failed", Fields: fields}
}

// FieldError builds a single-field body, for checks the struct tags cannot
// express (for example, a pick outside the allowed choices).
func FieldError(field, tag string) ErrorBody {
	return ErrorBody{Error: "validation_failed", Fields: map[string][]string{field: {tag}}}
}
