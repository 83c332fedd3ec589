package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValidateID validates a database identifier
func ValidateID(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%s must be a positive ID: %d", name, id)
	}
	return nil
}

// ParseID parses and validates a database identifier from text
func ParseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number: %q", name, s)
	}
	if err := ValidateID(name, id); err != nil {
		return 0, err
	}
	return id, nil
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
