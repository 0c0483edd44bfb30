package sanitize

import "errors"

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation error")

// Rules reported in ValidationError.Rule.
const (
	RuleRequired           = "required"
	RuleTooShort           = "too_short"
	RuleTooLong            = "too_long"
	RuleCharset            = "charset"
	RuleFormat             = "format"
	RuleEmptyAfterSanitize = "empty_after_sanitize"
)

// ValidationError is a field-scoped, user-correctable input error.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, rule, message string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: message}
}
