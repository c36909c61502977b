package composer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// identPattern keeps node ids usable as identifiers in generated code.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks the struct tags of a Node, Edge or Goal and reports the
// first failing field as ErrInvalidField.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating %T: %w", v, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidField, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "ident":
		return fmt.Sprintf("%s %q must start with a letter or underscore and contain only letters, digits and underscores", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of: %s", field, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
