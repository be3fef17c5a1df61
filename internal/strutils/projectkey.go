package strutils

import (
	"fmt"
	"strings"
	"unicode"
)

const VALID_KEY_PUNCTUATION = "._:/-"

const MAX_PROJECT_KEY_LENGTH = 200

// Trims surrounding whitespace and validates the key. Allowed characters are
// letters, digits and ._:/- with at least one letter or digit.
func NormalizeProjectKey(key string) (string, error) {
	normalized := strings.TrimSpace(key)

	if normalized == "" {
		return "", fmt.Errorf("empty project key. input: '%s'", key)
	}
	if len(normalized) > MAX_PROJECT_KEY_LENGTH {
		return "", fmt.Errorf("project key too long (%d characters). input: '%s'", len(normalized), key)
	}

	hasAlnum := false
	for _, char := range normalized {
		if unicode.IsLetter(char) || unicode.IsDigit(char) {
			hasAlnum = true
			continue
		}
		if strings.ContainsRune(VALID_KEY_PUNCTUATION, char) {
			continue
		}
		return "", fmt.Errorf("invalid character %q in project key. input: '%s'", char, key)
	}
	if !hasAlnum {
		return "", fmt.Errorf("project key has no letters or digits. input: '%s'", key)
	}

	return normalized, nil
}

func ProjectKeyIsNormalized(key string) bool {
	normalized, err := NormalizeProjectKey(key)
	return err == nil && normalized == key
}
