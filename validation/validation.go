// Package validation contains custom validation functions for the application to use for input validation.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"TaskService/models"
	"TaskService/response"

	"github.com/go-playground/validator/v10"
)

const (
	// FieldTag rejects strings that are empty or only whitespace.
	FieldTag = "fieldValidator"
	// StatusTag rejects statuses outside the accepted set.
	StatusTag = "statusValidator"
)

// StatusValidator accepts only "pending" and "completed".
func StatusValidator(fl validator.FieldLevel) bool {
	return models.IsValidStatus(fl.Field().String())
}

// FieldValidator is a validation function that checks if the field value is blank.
// It returns true if the field value holds anything besides whitespace, and false otherwise.
func FieldValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// New returns a validator with the custom validators registered and field
// names reported by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation(FieldTag, FieldValidator); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(StatusTag, StatusValidator); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors converts the error returned by validator.Struct into the
// per-field errors reported to clients. loc is prepended to every field path.
func FieldErrors(err error, loc string) []response.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []response.FieldError{{Loc: []string{loc}, Msg: err.Error(), Type: "value_error"}}
	}
	out := make([]response.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErr := response.FieldError{Loc: []string{loc, fe.Field()}}
		switch fe.Tag() {
		case "required":
			fieldErr.Msg, fieldErr.Type = "Field required", "missing"
		case FieldTag:
			fieldErr.Msg, fieldErr.Type = "Field must not be blank", "blank"
		case StatusTag:
			fieldErr.Msg = "Input should be '" + models.StatusPending + "' or '" + models.StatusCompleted + "'"
			fieldErr.Type = "enum"
		default:
			fieldErr.Msg, fieldErr.Type = fe.Error(), fe.Tag()
		}
		out = append(out, fieldErr)
	}
	return out
}

// DecodeErrors converts a JSON decoding failure of a request body into the
// per-field errors reported to clients.
func DecodeErrors(err error) []response.FieldError {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		return []response.FieldError{{
			Loc:  loc,
			Msg:  "Input should be a valid " + typeErr.Type.String() + ", got " + typeErr.Value,
			Type: "type_error",
		}}
	case errors.Is(err, io.EOF):
		return []response.FieldError{{Loc: []string{"body"}, Msg: "Field required", Type: "missing"}}
	default:
		return []response.FieldError{{Loc: []string{"body"}, Msg: "JSON decode error: " + err.Error(), Type: "json_invalid"}}
	}
}
