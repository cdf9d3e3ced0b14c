package strutils

import (
	"fmt"
	"strings"
	"unicode"
)

const VALID_HEX_DIGITS = "0123456789abcdefABCDEF"

const STRIPPED_UUID_LENGTH = 32

// Strips dashes, lowercases, and re-inserts dashes in the canonical positions
func NormalizeUUID(uuid string) (string, error) {
	var stripped strings.Builder
	stripped.Grow(STRIPPED_UUID_LENGTH)

	for _, char := range uuid {
		if char == '-' {
			continue
		} else if strings.ContainsRune(VALID_HEX_DIGITS, char) {
			_, err := stripped.WriteRune(unicode.ToLower(char))
			if err != nil {
				return "", fmt.Errorf("failed writing to stringbuilder: %w", err)
			}
		} else {
			return "", fmt.Errorf("invalid character in UUID. input: '%s'", uuid)
		}
	}
	if stripped.Len() != STRIPPED_UUID_LENGTH {
		return "", fmt.Errorf("normalized UUID has incorrect length. input: '%s'", uuid)
	}

	s := stripped.String()
	return fmt.Sprintf("%s-%s-%s-%s-%s", s[0:8], s[8:12], s[12:16], s[16:20], s[20:32]), nil
}

// Reports whether uuid is already in the canonical dashed lowercase form
func UUIDIsNormalized(uuid string) bool {
	normalized, err := NormalizeUUID(uuid)
	if err != nil {
		return false
	}
	return uuid == normalized
}
