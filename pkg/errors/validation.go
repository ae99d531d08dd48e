package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSourceBytes bounds the source text sent to the analysis service.
const MaxSourceBytes = 1 << 20

// MaxNodesLimit is the largest node cap a request may ask for.
const MaxNodesLimit = 5000

// ValidateSource validates source text before it is sent for analysis.
//
// Rules:
//   - Must not be blank
//   - Maximum of MaxSourceBytes bytes
//   - Must be valid UTF-8 without NUL bytes
func ValidateSource(code string) error {
	if strings.TrimSpace(code) == "" {
		return New(ErrCodeInvalidInput, "source code cannot be empty")
	}
	if len(code) > MaxSourceBytes {
		return New(ErrCodeInvalidInput, "source code too large (max %d bytes)", MaxSourceBytes)
	}
	if !utf8.ValidString(code) {
		return New(ErrCodeInvalidInput, "source code is not valid UTF-8")
	}
	if strings.ContainsRune(code, '\x00') {
		return New(ErrCodeInvalidInput, "source code contains NUL bytes")
	}
	return nil
}

// ValidateMaxNodes validates a requested node cap.
func ValidateMaxNodes(n int) error {
	if n <= 0 || n > MaxNodesLimit {
		return New(ErrCodeInvalidInput, "max_nodes must be between 1 and %d, got %d", MaxNodesLimit, n)
	}
	return nil
}

// ValidatePath validates a relative output or cache path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
