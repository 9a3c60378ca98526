package httpserver

import (
	"errors"
	"reflect"
	"strings"

	"moviedb/errs"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validate *validator.Validate
}

// validationMapper is implemented by requests whose failures carry a fixed
// client-facing message.
type validationMapper interface {
	validationError(fails validator.ValidationErrors) error
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(validateProfileRequest, UpdateProfileRequest{})
	return &CustomValidator{validate: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fails validator.ValidationErrors
	if m, ok := i.(validationMapper); ok && errors.As(err, &fails) {
		return m.validationError(fails)
	}
	return errs.Errorf(errs.EINVALID, "%s", formatValidationError(err))
}

// validateProfileRequest reports "present" for missing or null fields and
// "isstring" for name and address values of another JSON type.
func validateProfileRequest(sl validator.StructLevel) {
	r := sl.Current().Interface().(UpdateProfileRequest)

	fields := []struct {
		name       string
		value      interface{}
		mustString bool
	}{
		{"firstName", r.FirstName, true},
		{"lastName", r.LastName, true},
		{"dob", r.DOB, false},
		{"address", r.Address, true},
	}
	for _, f := range fields {
		if f.value == nil {
			sl.ReportError(f.value, f.name, f.name, "present", "")
			continue
		}
		if _, ok := f.value.(string); f.mustString && !ok {
			sl.ReportError(f.value, f.name, f.name, "isstring", "")
		}
	}
}

func hasTag(fails validator.ValidationErrors, tag string) bool {
	for _, fe := range fails {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}

func formatValidationError(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok {
		parts := make([]string, 0, len(errs))
		for _, fe := range errs {
			field := fe.Field()
			if field == "" {
				field = fe.StructField()
			}
			parts = append(parts, field+" failed on "+fe.Tag())
		}
		return "validation error: " + strings.Join(parts, "; ")
	}
	return "validation error"
}
