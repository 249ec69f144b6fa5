// Package match resolves raw rows against a report type's parameter schema.
//
// Matching is deliberately conservative: a row whose label cannot be
// resolved to exactly one schema entry is dropped, never guessed. Dropped
// rows are reported alongside the matches so callers can surface them as
// diagnostics without failing the extraction.
package match

import (
	"strconv"
	"strings"

	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/schema"
)

// Config controls alias resolution.
type Config struct {
	// MaxEditDistance is the Levenshtein tolerance for fuzzy alias
	// matching of labels longer than ShortLabelLen.
	MaxEditDistance int
	// ShortLabelLen is the label length (in runes) at or below which only
	// exact matches are accepted. Short clinical abbreviations (MCH, MCV,
	// HCT, PCT) sit one edit apart, so fuzzy matching them would guess.
	ShortLabelLen int
	// MinSubstringAlias is the minimum alias length considered for
	// substring matching, preventing two-letter aliases from matching
	// inside unrelated words.
	MinSubstringAlias int
}

// DefaultConfig returns the default matching tolerances.
func DefaultConfig() Config {
	return Config{
		MaxEditDistance:   1,
		ShortLabelLen:     3,
		MinSubstringAlias: 4,
	}
}

// Dropped records a raw row that could not be promoted, with the reason.
type Dropped struct {
	Row    model.RawRow
	Reason string
}

// Match resolves raw rows against the schema for the given report type
// using default tolerances. It fails only when the report type has no
// registered schema; unresolvable rows are returned as Dropped instead.
func Match(rows []model.RawRow, report model.ReportType) ([]model.ExtractedRow, []Dropped, error) {
	return MatchWithConfig(rows, report, DefaultConfig())
}

// MatchWithConfig resolves raw rows against the report type's schema.
func MatchWithConfig(rows []model.RawRow, report model.ReportType, cfg Config) ([]model.ExtractedRow, []Dropped, error) {
	s, err := schema.For(report)
	if err != nil {
		return nil, nil, err
	}

	var matched []model.ExtractedRow
	var dropped []Dropped

	for _, row := range rows {
		if row.Name == "" {
			dropped = append(dropped, Dropped{Row: row, Reason: "no label"})
			continue
		}
		if row.Value == "" {
			dropped = append(dropped, Dropped{Row: row, Reason: "no numeric value"})
			continue
		}

		name, reason := resolve(s, row.Name, cfg)
		if name == "" {
			dropped = append(dropped, Dropped{Row: row, Reason: reason})
			continue
		}

		matched = append(matched, build(s, name, row))
	}

	return matched, dropped, nil
}

// resolve maps a label to a canonical parameter name, or returns the drop
// reason. The ladder is exact match, then substring, then edit distance.
func resolve(s *schema.Schema, label string, cfg Config) (name, reason string) {
	normalized := schema.Normalize(label)

	if name, ok := s.Lookup(normalized); ok {
		return name, ""
	}

	if name, ok := substringMatch(s, normalized, cfg); ok {
		return name, ""
	}
	if name, reason, done := fuzzyMatch(s, normalized, cfg); done {
		return name, reason
	}

	return "", "unmatched label"
}

// substringMatch looks for a schema alias contained in the label, compared
// with spaces and hyphens removed so OCR spacing noise cannot hide it. The
// longest containing alias wins; a length tie across different parameters
// is ambiguous and matches nothing.
func substringMatch(s *schema.Schema, normalized string, cfg Config) (string, bool) {
	joined := joinLabel(normalized)

	bestLen := 0
	bestName := ""
	ambiguous := false
	for alias, name := range s.Aliases() {
		ja := joinLabel(alias)
		if len(ja) < cfg.MinSubstringAlias || !strings.Contains(joined, ja) {
			continue
		}
		switch {
		case len(ja) > bestLen:
			bestLen = len(ja)
			bestName = name
			ambiguous = false
		case len(ja) == bestLen && name != bestName:
			ambiguous = true
		}
	}

	if bestLen == 0 || ambiguous {
		return "", false
	}
	return bestName, true
}

// fuzzyMatch resolves the label by edit distance. done reports that the
// ladder should stop: either a unique match was found or the label tied
// between parameters and must be dropped.
func fuzzyMatch(s *schema.Schema, normalized string, cfg Config) (name, reason string, done bool) {
	tolerance := cfg.MaxEditDistance
	if len([]rune(normalized)) <= cfg.ShortLabelLen {
		tolerance = 0
	}
	if tolerance == 0 {
		// Exact matching already ran.
		return "", "", false
	}

	bestDist := tolerance + 1
	bestName := ""
	ambiguous := false
	for alias, candidate := range s.Aliases() {
		if !schema.WithinTolerance(normalized, alias, tolerance) {
			continue
		}
		d := schema.Distance(normalized, alias)
		switch {
		case d < bestDist:
			bestDist = d
			bestName = candidate
			ambiguous = false
		case d == bestDist && candidate != bestName:
			ambiguous = true
		}
	}

	if bestName == "" {
		return "", "", false
	}
	if ambiguous {
		return "", "ambiguous label", true
	}
	return bestName, "", true
}

func joinLabel(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "-", "")
}

// build assembles the extracted row, canonicalizing the unit, filling
// missing unit/range from the schema, and flagging out-of-domain values.
func build(s *schema.Schema, name string, row model.RawRow) model.ExtractedRow {
	param, _ := s.Parameter(name)

	unit := s.CanonicalUnit(row.Unit)
	if unit == "" {
		unit = param.Unit
	}
	rng := row.Range
	if rng == "" {
		rng = param.Range
	}

	out := model.ExtractedRow{
		Parameter:  name,
		Value:      row.Value,
		Unit:       unit,
		Range:      rng,
		Confidence: row.Confidence(),
	}

	if v, err := strconv.ParseFloat(strings.TrimLeft(row.Value, "<>"), 64); err == nil {
		out.OutOfDomain = !param.InDomain(v)
	}

	return out
}
