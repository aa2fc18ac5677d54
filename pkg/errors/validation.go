package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxGardenNameLength bounds ecosystem names accepted at the API boundary.
const MaxGardenNameLength = 256

// ValidateGardenName validates an ecosystem name used as a registry key.
// Names come from user-edited schemas and HTTP path segments, so the rules
// reject anything that could not round-trip through a URL or a file name:
//   - No empty or whitespace-only names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateGardenName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "garden name cannot be empty")
	}

	if len(name) > MaxGardenNameLength {
		return New(ErrCodeInvalidInput, "garden name too long (max %d characters)", MaxGardenNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "garden name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "garden name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateSchemaFilename validates a schema file name and returns its format
// ("json", "yaml" or "toml") derived from the extension.
func ValidateSchemaFilename(filename string) (string, error) {
	if filename == "" {
		return "", New(ErrCodeInvalidPath, "schema filename cannot be empty")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", New(ErrCodeInvalidFormat, "unsupported schema file %q (want .json, .yaml, .yml or .toml)", filepath.Base(filename))
	}
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
