package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violations maps a JSON field path (client.name, lineItems[0].quantity) to a
// violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct runs the `validate` struct tags of v and returns the violations
// keyed by JSON path. A nil result means v is valid.
func Struct(v any) Violations {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Violations{"_": "invalid"}
	}
	out := Violations{}
	for _, fe := range fieldErrs {
		out[fieldPath(fe.Namespace())] = code(fe)
	}
	return out
}

// fieldPath drops the root struct name: Draft.client.name -> client.name.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gte":
		if fe.Param() == "0" {
			return "must_be_non_negative"
		}
		return "out_of_range"
	case "lte", "gt", "lt", "min", "max":
		return "out_of_range"
	case "oneof":
		return "invalid_value"
	default:
		return fe.Tag()
	}
}
