// Package validation checks request payloads against `validate` struct tags
// and reports failures as *common.ValidationError with user-facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// Messages maps "<json field>.<tag>" to the message reported for that failure.
type Messages map[string]string

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// RegisterValidation only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})

	return &Validator{v: v}
}

// Struct validates s. It returns nil or a *common.ValidationError whose
// messages come from msgs, falling back to a generic text per tag.
func (v *Validator) Struct(s any, msgs Messages) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	verr := &common.ValidationError{}
	for _, fe := range fieldErrs {
		path := fe.Field()
		msg, ok := msgs[path+"."+fe.Tag()]
		if !ok {
			msg = fallback(fe)
		}
		verr.Issues = append(verr.Issues, common.FieldIssue{Path: path, Message: msg})
	}
	return verr
}

func fallback(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "category":
		return "Invalid category"
	default:
		return "Invalid value"
	}
}
