package preprocess

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/labtract/model"
)

// extractTextLayer reads the embedded text layer of a PDF, grouping words
// into visual rows per page. Text-layer lines carry confidence 1.0.
// Returns no lines (not an error) for scanned PDFs without a text layer.
func extractTextLayer(data []byte) (lines []model.TextLine, err error) {
	// The pdf package panics on some malformed documents; treat that as
	// an unreadable text layer rather than crashing the pipeline.
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf text layer: %w", err)
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			text := joinRow(row)
			if text == "" {
				continue
			}
			lines = append(lines, model.TextLine{
				Text: text,
				Page: pageNum - 1,
				// PDF Y grows upward; negate so ascending Y reads
				// top-to-bottom like the OCR branch.
				Y:          -float64(row.Position),
				Confidence: 1.0,
			})
		}
	}

	return lines, nil
}

func joinRow(row *pdf.Row) string {
	parts := make([]string, 0, len(row.Content))
	for _, word := range row.Content {
		if s := strings.TrimSpace(word.S); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
