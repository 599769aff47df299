package apperror

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Init makes gin's validator report fields by the name the client sent:
// the json name for bodies, the form name for query strings.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(clientFieldName)
	}
}

func clientFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func RequiredField(field string) *AppError {
	return Validation(field + " is required")
}

func InvalidField(field string) *AppError {
	return Validation(field + " is invalid")
}

// formatFieldName turns a client field name into words:
// basicSalary -> Basic Salary, recipient_phone -> Recipient Phone.
func formatFieldName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r == '_' {
			b.WriteRune(' ')
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}

	caser := cases.Title(language.English)
	return caser.String(b.String())
}

func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return Validation("Invalid input")
	}

	// first failing field only
	e := errs[0]
	field := formatFieldName(e.Field())

	switch e.Tag() {
	case "required":
		return RequiredField(field)
	case "oneof":
		return Validation(fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(e.Param()), ", ")))
	case "gt":
		return Validation(fmt.Sprintf("%s must be greater than %s", field, e.Param()))
	case "gte":
		return Validation(fmt.Sprintf("%s must be at least %s", field, e.Param()))
	default:
		return InvalidField(field)
	}
}
