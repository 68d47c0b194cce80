package validation

import (
	"fmt"
	"strings"
)

// Issue codes as they appear in response bodies.
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidString = "invalid_string"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeCustom        = "custom"
)

// Issue is one structured validation failure.
type Issue struct {
	Code    string   `json:"code"`
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// Issues is an ordered list of validation failures. It implements error so
// services can return it alongside persistence errors; the HTTP layer tells
// them apart with errors.As.
type Issues []Issue

func (is Issues) Error() string {
	parts := make([]string, 0, len(is))
	for _, i := range is {
		if len(i.Path) == 0 {
			parts = append(parts, i.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(i.Path, "."), i.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Custom builds a business-rule issue at a single-field path.
func Custom(field, message string) Issue {
	return Issue{Code: CodeCustom, Path: []string{field}, Message: message}
}

// Business-rule issues shared by the user operations.
var (
	PasswordMismatch = Custom("confirmPassword", "Passwords do not match")
	EmailTaken       = Custom("email", "Email already exists")
	UserNotFound     = Custom("id", "User not found.")
	NoUsers          = Custom("id", "Cannot find any users.")
)
