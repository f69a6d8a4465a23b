package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"sesmt-backend/internal/compliance"
)

// validate is shared by every request model. validator.Validate caches
// struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
		return compliance.ValidCNPJ(fl.Field().String())
	})
	_ = v.RegisterValidation("issuedate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.TrimSpace(s) == "" {
			return true
		}
		_, ok := compliance.ParseIssuanceDate(s)
		return ok
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := compliance.ParseIssuanceDate(fl.Field().String())
		return ok
	})
	return v
}

// validationErrors runs struct validation and flattens the result into the
// field → message map the API returns.
func validationErrors(s interface{}) map[string]string {
	errs := map[string]string{}

	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		errs["_"] = "Invalid request"
		return errs
	}

	for _, fe := range ve {
		field := fe.Field()
		if _, exists := errs[field]; exists {
			continue
		}
		errs[field] = messageFor(fe)
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short, min: " + fe.Param()
	case "max":
		return "Value is too long, max: " + fe.Param()
	case "email":
		return "Value must be a valid email address"
	case "cnpj":
		return "Value must be a valid CNPJ"
	case "issuedate", "isodate":
		return "Value must be a date (dd/mm/yyyy or yyyy-mm-dd)"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	default:
		return "Invalid value provided"
	}
}
