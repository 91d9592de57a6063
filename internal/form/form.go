// Package form validates submitted forms and turns validation failures into
// the inline messages shown next to each field.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sebez/jobboard/internal/resume"
)

// Errors maps a form field name to its message. The empty key holds errors
// that belong to the whole form.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) Any() bool {
	return len(e) > 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	v.RegisterValidation("resume_ext", validateResumeExtension)
	return v
}

func validateResumeExtension(fl validator.FieldLevel) bool {
	return resume.AllowedFileName(fl.Field().String())
}

// Validate checks s against its validate tags.
func Validate(s interface{}) Errors {
	errs := Errors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "oneof", "gt":
		return "Select a valid choice."
	case "datetime":
		return "Enter a valid date."
	case "resume_ext":
		return fmt.Sprintf("File extension is not allowed. Allowed extensions are: %s.", strings.Join(resume.AllowedExtensions, ", "))
	}
	return "Enter a valid value."
}
