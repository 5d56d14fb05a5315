package service

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-level messages for malformed input. It is
// surfaced to the caller as a structured result, never as a crash.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
