package models

import (
	"strings"
	"unicode/utf8"

	"github.com/mmynk/groupshare/internal/apperr"
)

// ValidateGroupFields checks name and description limits. Name is trimmed
// before the check; callers should store the trimmed value.
func ValidateGroupFields(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Invalid("name", "group name is required")
	}
	if utf8.RuneCountInString(name) > MaxGroupNameLength {
		return apperr.Invalid("name", "group name must be at most %d characters", MaxGroupNameLength)
	}
	if utf8.RuneCountInString(description) > MaxGroupDescriptionLength {
		return apperr.Invalid("description", "description must be at most %d characters", MaxGroupDescriptionLength)
	}
	return nil
}
