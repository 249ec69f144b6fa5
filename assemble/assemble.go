// Package assemble produces the final ordered extraction result.
//
// Output rows follow the schema's canonical parameter order, not the order
// parameters appeared in the document, so byte-identical inputs always
// yield identically ordered results.
package assemble

import (
	"errors"
	"sort"

	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/schema"
)

// ErrEmptyExtraction is returned when a table-shaped region was found but
// none of its rows matched the requested report type's schema. It is
// distinct from segment.ErrNoTableFound and usually signals a report-type
// mismatch.
var ErrEmptyExtraction = errors.New("assemble: no rows matched the report schema")

// Assemble orders matched rows canonically and deduplicates by parameter,
// keeping the row with the higher source-line confidence when a parameter
// was matched more than once.
func Assemble(rows []model.ExtractedRow, s *schema.Schema) (*model.ExtractionResult, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyExtraction
	}

	best := make(map[string]model.ExtractedRow, len(rows))
	for _, row := range rows {
		prev, seen := best[row.Parameter]
		if !seen || row.Confidence > prev.Confidence {
			best[row.Parameter] = row
		}
	}

	ordered := make([]model.ExtractedRow, 0, len(best))
	for _, row := range best {
		ordered = append(ordered, row)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return s.Order(ordered[i].Parameter) < s.Order(ordered[j].Parameter)
	})

	return &model.ExtractionResult{Rows: ordered}, nil
}
