// Package tokenize splits candidate table lines into raw field tokens.
//
// Each line is normalized (Unicode folding, dash unification, OCR
// substitution repair) and split into four optional slots: name, value,
// unit, and reference range. A line with no parseable numeric value still
// yields a RawRow with an empty value slot, so downstream diagnostics can
// see it; such rows are never promoted to output.
package tokenize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/labtract/model"
)

// Config controls tokenization behavior.
type Config struct {
	// MergeSplitRows joins a label-only line with an adjacent values-only
	// line. Column-major OCR output frequently splits one visual row this
	// way.
	MergeSplitRows bool
}

// DefaultConfig returns the default tokenizer configuration.
func DefaultConfig() Config {
	return Config{
		MergeSplitRows: true,
	}
}

var (
	// valueRE recognizes a signed decimal, optionally prefixed with a
	// comparison symbol, after comma grouping has been stripped.
	valueRE = regexp.MustCompile(`^([<>]?-?\d+(?:\.\d+)?)(.*)$`)

	// rangeRE recognizes "low-high" ranges after dash unification,
	// including the "low to high" spelling.
	rangeRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)`)

	// inequalityRE recognizes single-bound ranges like "<0.3".
	inequalityRE = regexp.MustCompile(`([<>])\s*(\d+(?:\.\d+)?)`)

	// commaGroupRE strips thousands separators inside digit runs.
	commaGroupRE = regexp.MustCompile(`(\d),(\d)`)
)

// foldTransform decomposes compatibility forms and strips combining marks,
// so e.g. full-width digits and accented letters compare cleanly.
var foldTransform = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Tokenize converts a candidate region into raw rows using the default
// configuration.
func Tokenize(region model.CandidateRegion) []model.RawRow {
	return TokenizeWithConfig(region, DefaultConfig())
}

// TokenizeWithConfig converts a candidate region into raw rows, one per
// line, merging split rows when configured.
func TokenizeWithConfig(region model.CandidateRegion, cfg Config) []model.RawRow {
	rows := make([]model.RawRow, 0, len(region.Lines))
	for _, line := range region.Lines {
		rows = append(rows, parseLine(line))
	}
	if cfg.MergeSplitRows {
		rows = mergeSplitRows(rows)
	}
	return rows
}

// Shape summarizes which slots a line of text would yield if tokenized.
// The segmenter scores lines with this, so scoring and splitting can never
// disagree about what counts as a table row.
type Shape struct {
	HasName  bool
	HasValue bool
	HasUnit  bool
	HasRange bool
}

// ShapeOf reports the slot shape a single line would tokenize into.
func ShapeOf(text string) Shape {
	row := parseLine(model.TextLine{Text: text})
	return Shape{
		HasName:  row.Name != "",
		HasValue: row.Value != "",
		HasUnit:  row.Unit != "",
		HasRange: row.Range != "",
	}
}

// parseLine splits one line into name/value/unit/range slots.
func parseLine(line model.TextLine) model.RawRow {
	row := model.RawRow{Source: []model.TextLine{line}}

	tokens := strings.Fields(NormalizeLine(line.Text))
	if len(tokens) == 0 {
		return row
	}

	// Locate the label (first alpha-dominant token) and value candidates.
	labelStart := -1
	for i, tok := range tokens {
		if isLabelToken(tok) {
			labelStart = i
			break
		}
	}
	firstValue := -1
	for i, tok := range tokens {
		if _, _, ok := splitValueToken(tok); ok {
			firstValue = i
			break
		}
	}
	valueAfterLabel := -1
	if labelStart >= 0 {
		for i := labelStart + 1; i < len(tokens); i++ {
			if _, _, ok := splitValueToken(tokens[i]); ok {
				valueAfterLabel = i
				break
			}
		}
	}

	valueIdx := -1
	switch {
	case labelStart >= 0 && valueAfterLabel >= 0:
		// Labeled row. Tokens before the label (serial numbers, stray
		// marks) are discarded.
		valueIdx = valueAfterLabel
		row.Name = strings.TrimRight(strings.Join(tokens[labelStart:valueIdx], " "), ":")
	case firstValue >= 0:
		// Values-only row: any alpha tokens here are unit fragments, not
		// a label ("13.5 g/dL 12.0-15.5").
		valueIdx = firstValue
	case labelStart >= 0:
		// Label-only row; a values-only neighbor may complete it.
		row.Name = strings.TrimRight(strings.Join(tokens[labelStart:], " "), ":")
		return row
	default:
		return row
	}

	value, tail, _ := splitValueToken(tokens[valueIdx])
	row.Value = value

	// A unit fused onto the value token ("13.5g/dL") splits off here.
	rest := tokens[valueIdx+1:]
	if tail != "" && isUnitToken(tail) {
		rest = append([]string{tail}, rest...)
	}

	row.Unit, row.Range = splitUnitAndRange(rest)
	return row
}

// splitUnitAndRange separates the tokens after the value into a unit and a
// reference range.
func splitUnitAndRange(tokens []string) (unit, rng string) {
	joined := strings.Join(tokens, " ")

	var rangeText string
	if m := rangeRE.FindStringSubmatch(joined); m != nil {
		rng = m[1] + "-" + m[2]
		rangeText = m[0]
	} else if m := inequalityRE.FindStringSubmatch(joined); m != nil {
		rng = m[1] + m[2]
		rangeText = m[0]
	}

	// The unit is the first unit-shaped token not consumed by the range.
	remainder := joined
	if rangeText != "" {
		remainder = strings.Replace(remainder, rangeText, " ", 1)
	}
	for _, tok := range strings.Fields(remainder) {
		if isUnitToken(tok) {
			unit = tok
			break
		}
	}
	return unit, rng
}

// mergeSplitRows joins adjacent complementary rows: a row carrying only a
// label with a neighbor carrying only values. Both orders occur, depending
// on whether recognition walked the label or the value column first.
func mergeSplitRows(rows []model.RawRow) []model.RawRow {
	merged := make([]model.RawRow, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		cur := rows[i]
		if i+1 < len(rows) {
			next := rows[i+1]
			if combinable(cur, next) {
				merged = append(merged, combine(cur, next))
				i++
				continue
			}
			if combinable(next, cur) {
				merged = append(merged, combine(next, cur))
				i++
				continue
			}
		}
		merged = append(merged, cur)
	}
	return merged
}

// combinable reports whether label carries only a name and data carries
// only values, so the pair reads as one visual row.
func combinable(label, data model.RawRow) bool {
	return label.Name != "" && label.Value == "" &&
		data.Name == "" && data.Value != ""
}

func combine(label, data model.RawRow) model.RawRow {
	return model.RawRow{
		Name:   label.Name,
		Value:  data.Value,
		Unit:   data.Unit,
		Range:  data.Range,
		Source: append(append([]model.TextLine{}, label.Source...), data.Source...),
	}
}

// NormalizeLine folds Unicode compatibility forms, unifies dash variants,
// strips thousands separators, and repairs common OCR substitutions. It is
// exported so the segmenter can score lines in the same normalized space
// the tokenizer splits them in.
func NormalizeLine(s string) string {
	out, _, err := transform.String(foldTransform, s)
	if err != nil {
		out = s
	}
	out = strings.Map(unifyDash, out)
	out = commaGroupRE.ReplaceAllString(out, "$1$2")

	fields := strings.Fields(out)
	for i, tok := range fields {
		fields[i] = repairToken(tok)
	}
	return strings.Join(fields, " ")
}

func unifyDash(r rune) rune {
	switch r {
	case '–', '—', '‒', '−', '―':
		return '-'
	}
	return r
}

// ocrDigit maps letters Tesseract commonly substitutes for digits.
var ocrDigit = map[rune]rune{
	'O': '0', 'o': '0', 'Q': '0', 'D': '0',
	'I': '1', 'l': '1', '|': '1', '!': '1',
	'Z': '2', 'z': '2',
	'S': '5', 's': '5',
	'B': '8',
	'g': '9',
}

// ocrLetter maps digits commonly substituted into alphabetic labels.
var ocrLetter = map[rune]rune{
	'0': 'o',
	'1': 'l',
	'5': 's',
	'8': 'B',
}

// repairToken applies OCR substitution repair to a single token. A token
// that is digits with a few letter intrusions is repaired toward a number;
// a token that is letters with a few digit intrusions is repaired toward a
// word. Balanced tokens ("B12") are left alone.
func repairToken(tok string) string {
	letters, digits := 0, 0
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if digits == 0 && letters == 0 {
		return tok
	}

	if digits > letters {
		// Lab values are decimals, bounds, ranges, or large counts.
		// Short bare digit/letter mixes ("B12") are left alone.
		if letters > 0 && digits < 4 && !strings.ContainsAny(tok, ".<>-") {
			return tok
		}
		repaired := strings.Map(func(r rune) rune {
			if d, ok := ocrDigit[r]; ok {
				return d
			}
			return r
		}, tok)
		// Only keep the repair if it produced something value-shaped;
		// otherwise the letters were real.
		if tokenIsNumericish(repaired) {
			return repaired
		}
		return tok
	}

	if digits > 0 && letters >= 3*digits {
		repaired := strings.Map(func(r rune) rune {
			if l, ok := ocrLetter[r]; ok {
				return l
			}
			return r
		}, tok)
		// Keep the repair only when it cleared every digit intrusion.
		if !strings.ContainsAny(repaired, "0123456789") {
			return repaired
		}
	}

	return tok
}

// tokenIsNumericish accepts numbers, ranges, and inequality bounds.
func tokenIsNumericish(tok string) bool {
	if _, tail, ok := splitValueToken(tok); ok && tail == "" {
		return true
	}
	return rangeRE.MatchString(tok) || inequalityRE.MatchString(tok)
}

// splitValueToken splits a token into a leading value and a trailing
// remainder. ok is true only when the token starts with a parseable value.
func splitValueToken(tok string) (value, tail string, ok bool) {
	m := valueRE.FindStringSubmatch(tok)
	if m == nil {
		return "", "", false
	}
	// A dash right after the number means this token is a range fragment
	// ("12.0-15.5"), not a value.
	if strings.HasPrefix(m[2], "-") {
		return "", "", false
	}
	return m[1], m[2], true
}

// isLabelToken reports whether a token can begin a parameter name.
func isLabelToken(tok string) bool {
	letters, digits := 0, 0
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters > 0 && letters > digits
}

// isUnitToken reports whether a token is unit-shaped: it contains letters,
// '%', or 'µ', and is not value-shaped.
func isUnitToken(tok string) bool {
	if tok == "" || tokenIsNumericish(tok) {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) || r == '%' || r == 'µ' || r == 'μ' {
			return true
		}
	}
	return false
}
