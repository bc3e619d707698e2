package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"gritcast/internal/types"
)

// Validator wraps go-playground/validator for request DTO validation. A
// single instance is shared across handlers; the underlying validate object
// caches struct metadata and is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator configured to report JSON field names
// (from struct tags) rather than Go field names in error details.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// ValidateStruct validates dst against its struct tags. On failure it returns
// a *types.AppError with code "validation_missing_field" and a details map of
// field name -> violated rule.
func (v *Validator) ValidateStruct(dst interface{}) *types.AppError {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: dst was not a struct. Programming error.
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = describeRule(fe)
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationMissingField,
		"request validation failed",
		err,
		details,
	)
}

// describeRule renders a single violated validation rule for error details.
func describeRule(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed rule %q with parameter %q", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed rule %q", fe.Tag())
}
