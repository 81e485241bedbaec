// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"fmt"
	"strings"
)

// ParseError is a malformed input document. Not retried; surfaced to the
// caller as a client error.
type ParseError struct {
	Format  string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s input: %s", e.Format, e.Message)
}

// ValidationError carries the full list of violated rules for one request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Violations, "; "))
}

// MalformedResponseError means the completion model returned JSON that does
// not match the expected analysis shape.
type MalformedResponseError struct {
	Message string
	Missing []string
}

func (e *MalformedResponseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("malformed analysis response: missing keys %s", strings.Join(e.Missing, ", "))
	}
	return "malformed analysis response: " + e.Message
}
