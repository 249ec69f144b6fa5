package labtract

import (
	"fmt"
	"strings"

	"github.com/tsawler/labtract/match"
)

// Warning describes a non-fatal issue encountered during extraction, such as
// a table row that could not be matched to the report schema. Warnings let
// callers audit partial results without the extraction failing.
type Warning struct {
	// Code identifies the kind of issue (e.g. "unmatched label").
	Code string
	// Line is the source text the issue relates to, when available.
	Line string
}

// String returns a human-readable form of the warning.
func (w Warning) String() string {
	if w.Line == "" {
		return w.Code
	}
	return fmt.Sprintf("%s: %q", w.Code, w.Line)
}

// FormatWarnings joins warnings into a single human-readable string,
// one per line.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "\n")
}

// droppedWarnings converts matcher drop records into warnings.
func droppedWarnings(dropped []match.Dropped) []Warning {
	if len(dropped) == 0 {
		return nil
	}
	warnings := make([]Warning, len(dropped))
	for i, d := range dropped {
		line := d.Row.Name
		if d.Row.Value != "" {
			line += " " + d.Row.Value
		}
		warnings[i] = Warning{Code: d.Reason, Line: strings.TrimSpace(line)}
	}
	return warnings
}
