package errors

import (
	"strings"
	"unicode"
)

// ValidateLayerName validates a layer name for safety and correctness.
// Layer names end up in file paths, DOT labels, and JSON payloads, so the
// rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators
//   - Maximum length of 256 characters
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLayer, "layer name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidLayer, "layer name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLayer, "layer name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidLayer, "layer name cannot contain path separators")
	}

	return nil
}

// ValidateUtilDrop validates the maximum utilization drop ratio.
// The ratio bounds how much utilization a pipelined allocation may sacrifice
// relative to running each layer on the full resource, and must be in [0, 1].
func ValidateUtilDrop(maxUtilDrop float64) error {
	if maxUtilDrop < 0 || maxUtilDrop > 1 {
		return New(ErrCodeInvalidUtilDrop, "max utilization drop must be between 0 and 1, got %v", maxUtilDrop)
	}
	return nil
}
