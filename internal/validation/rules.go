// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// EntityNameMaxLength keeps derived names (e.g. "{name}_rsusr") within the
// 63-byte Postgres identifier limit.
const EntityNameMaxLength = 50

var entityNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// EntityName validates dataspace and connector names: lowercase letters,
// digits and hyphens, starting with a letter and not ending with a hyphen.
var EntityName = validation.NewStringRuleWithError(
	func(s string) bool {
		return entityNameRegex.MatchString(s) && !strings.Contains(s, "--")
	},
	validation.NewError(
		"validation_entity_name",
		"must contain only lowercase letters, digits and single hyphens, starting with a letter",
	),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// ValidateEntityName checks a dataspace or connector name given on the
// command line. field names the argument in the error message.
func ValidateEntityName(field, name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(2, EntityNameMaxLength),
		EntityName,
	)
	if err != nil {
		return WrapValidationError(validation.Errors{field: err})
	}
	return nil
}
