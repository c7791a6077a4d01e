package errors

import (
	"strings"
	"unicode"
)

// ValidateGroupName validates a group name taken from an input frame.
// Group names become part of element ids and file names, so the rules
// are strict:
//   - No empty names
//   - No control characters
//   - No id delimiters ( '(' ')' '~' '#' )
//   - Maximum length of 128 characters
func ValidateGroupName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "group name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "group name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "group name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "()~#") {
		return New(ErrCodeInvalidInput, "group name contains reserved characters: %q", name)
	}

	return nil
}

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
