package validation

import (
	"reflect"
	"strings"

	v10 "github.com/go-playground/validator/v10"
)

// FieldError describes one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var validate = v10.New()

// Validate runs struct validation using go-playground/validator.
func Validate(v any) error {
	return validate.Struct(v)
}

// Format converts validator errors into FieldErrors. Field names resolve
// through json tags on the example value when available. Codes follow
// "INVALID_<RULE>", with the rule parameter appended after "|".
func Format(err error, v any) []FieldError {
	if err == nil {
		return nil
	}
	ve, ok := err.(v10.ValidationErrors)
	if !ok {
		return []FieldError{{Code: "invalid", Message: err.Error()}}
	}

	var rt reflect.Type
	if v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		if rv.IsValid() && rv.Kind() == reflect.Struct {
			rt = rv.Type()
		}
	}

	out := make([]FieldError, 0, len(ve))
	for _, f := range ve {
		name := f.Field()
		if rt != nil {
			if sf, found := rt.FieldByName(name); found {
				tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
				if tag != "" && tag != "-" {
					name = tag
				}
			}
		}

		code := "INVALID_" + strings.ToUpper(f.Tag())
		if p := f.Param(); p != "" {
			code += "|" + p
		}
		out = append(out, FieldError{Field: strings.ToLower(name), Code: code, Message: f.Error()})
	}
	return out
}
