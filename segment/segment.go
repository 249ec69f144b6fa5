// Package segment identifies the candidate table region within recognized
// text lines.
//
// Lab reports surround their parameter table with letterhead, patient
// demographics, column headers, interpretation notes, and signatures. The
// segmenter scores every line for "table row shape" (label, then a numeric
// value, then optional unit and range), then selects the maximal contiguous
// run of high-scoring lines, tolerating short gaps and crossing page
// boundaries. Everything outside the run is discarded.
package segment

import (
	"errors"
	"strings"

	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/tokenize"
)

// ErrNoTableFound is returned when no run of row-shaped lines scores above
// the configured threshold. It signals "no table in this document", which is
// distinct from a table whose fields match no schema entry.
var ErrNoTableFound = errors.New("segment: no table-shaped region found")

// Config controls region selection.
type Config struct {
	// MinRowScore is the per-line score at or above which a line counts as
	// part of a run.
	MinRowScore float64
	// MinRunScore is the minimum total score a run needs to qualify as the
	// candidate table.
	MinRunScore float64
	// MaxGap is the number of consecutive low-scoring lines tolerated
	// inside a run (section headers, smudged rows).
	MaxGap int
}

// DefaultConfig returns the default segmentation thresholds.
func DefaultConfig() Config {
	return Config{
		MinRowScore: 0.5,
		MinRunScore: 1.4,
		MaxGap:      2,
	}
}

// demographicWords mark letterhead and patient-block lines. They zero a
// line's score even when the line happens to contain a number (ages, dates,
// phone numbers, registration ids).
var demographicWords = map[string]bool{
	"patient": true, "name": true, "age": true, "sex": true, "gender": true,
	"dr": true, "dr.": true, "doctor": true, "consultant": true,
	"lab": true, "laboratory": true, "pathology": true, "diagnostics": true,
	"date": true, "time": true, "collected": true, "received": true,
	"reported": true, "reg": true, "regno": true, "uhid": true,
	"phone": true, "ph": true, "tel": true, "fax": true, "email": true,
	"www": true, "http": true, "https": true,
	"signature": true, "technician": true, "pathologist": true, "verified": true,
}

// headerWords mark column-header and section lines. They only zero a line
// that carries no numeric value, so a parameter row that merely mentions
// one of them is unaffected.
var headerWords = map[string]bool{
	"test": true, "description": true, "result": true, "results": true,
	"unit": true, "units": true, "ref": true, "ref.": true,
	"reference": true, "range": true, "method": true, "specimen": true,
	"interpretation": true, "remarks": true, "parameters": true,
	"complete": true, "differential": true, "indices": true,
}

// Segment selects the candidate table region using default thresholds.
func Segment(lines []model.TextLine) (model.CandidateRegion, error) {
	return SegmentWithConfig(lines, DefaultConfig())
}

// SegmentWithConfig selects the candidate table region. Input lines must be
// in page-then-vertical order; the returned region preserves that order.
func SegmentWithConfig(lines []model.TextLine, cfg Config) (model.CandidateRegion, error) {
	scores := make([]float64, len(lines))
	for i, line := range lines {
		scores[i] = Score(line.Text)
	}

	best, ok := bestRun(scores, cfg)
	if !ok || best.score < cfg.MinRunScore {
		return model.CandidateRegion{}, ErrNoTableFound
	}

	selected := lines[best.start:best.end]
	return model.CandidateRegion{
		Lines:     selected,
		FirstPage: selected[0].Page,
		LastPage:  selected[len(selected)-1].Page,
	}, nil
}

// Score rates one line's resemblance to a parameter table row, in [0,1].
func Score(text string) float64 {
	normalized := strings.ToLower(tokenize.NormalizeLine(text))
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return 0
	}

	shape := tokenize.ShapeOf(text)

	for _, w := range words {
		if demographicWords[strings.TrimRight(w, ":")] {
			return 0
		}
	}
	if !shape.HasValue {
		for _, w := range words {
			if headerWords[strings.TrimRight(w, ":")] {
				return 0
			}
		}
	}

	switch {
	case shape.HasName && shape.HasValue:
		score := 0.7
		if shape.HasUnit {
			score += 0.15
		}
		if shape.HasRange {
			score += 0.15
		}
		return score
	case shape.HasValue:
		// Values without a label: likely half of a split row.
		return 0.5
	case shape.HasName:
		// Bare label: possibly an orphan label, possibly prose.
		return 0.2
	default:
		return 0
	}
}

type run struct {
	start, end int // end exclusive
	score      float64
}

// bestRun finds the highest-scoring contiguous run, tolerating up to
// cfg.MaxGap consecutive low lines inside it. Ties prefer the longer run,
// then the earlier one.
func bestRun(scores []float64, cfg Config) (run, bool) {
	const eps = 1e-9
	var best run
	found := false

	i := 0
	for i < len(scores) {
		if scores[i] < cfg.MinRowScore {
			i++
			continue
		}

		start := i
		sum := 0.0
		last := i
		gap := 0
		for j := i; j < len(scores); j++ {
			if scores[j] >= cfg.MinRowScore {
				sum += scores[j]
				last = j
				gap = 0
			} else {
				gap++
				if gap > cfg.MaxGap {
					break
				}
			}
		}

		cand := run{start: start, end: last + 1, score: sum}
		if !found ||
			cand.score > best.score+eps ||
			(cand.score > best.score-eps && cand.end-cand.start > best.end-best.start) {
			best = cand
			found = true
		}
		i = last + 1
	}

	return best, found
}
