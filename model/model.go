package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MediaKind identifies the physical encoding of a submitted document.
type MediaKind int

const (
	// MediaAuto lets the preprocessor detect the kind from magic bytes.
	MediaAuto MediaKind = iota
	// MediaImage indicates a raster image (PNG, JPEG, TIFF, BMP).
	MediaImage
	// MediaPDF indicates a PDF document.
	MediaPDF
)

// String returns the string representation of the media kind.
func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaPDF:
		return "pdf"
	default:
		return "auto"
	}
}

// ReportType identifies a registered lab-report kind. The set is closed at
// compile time; adding a kind means adding a constant here and a schema data
// file, not a new code path.
type ReportType int

const (
	// ReportUnknown is the zero value; no schema is registered for it.
	ReportUnknown ReportType = iota
	// ReportCBC is a complete blood count report.
	ReportCBC
	// ReportLFT is a liver function test report.
	ReportLFT
)

// String returns the wire name of the report type.
func (t ReportType) String() string {
	switch t {
	case ReportCBC:
		return "cbc"
	case ReportLFT:
		return "lft"
	default:
		return "unknown"
	}
}

// ParseReportType maps a wire string (case-insensitive) to a ReportType.
// Unrecognized strings map to ReportUnknown; the schema registry turns that
// into ErrUnknownReportType so callers see one consistent failure.
func ParseReportType(s string) ReportType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cbc":
		return ReportCBC
	case "lft":
		return ReportLFT
	default:
		return ReportUnknown
	}
}

// Document is one submitted lab report. It is immutable once constructed
// and is discarded when its pipeline run completes.
type Document struct {
	Data   []byte
	Media  MediaKind
	Report ReportType
}

// NewDocument constructs a Document. The byte slice is not copied; callers
// must not mutate it while the pipeline runs.
func NewDocument(data []byte, media MediaKind, report ReportType) *Document {
	return &Document{Data: data, Media: media, Report: report}
}

// TextLine is one line of recognized text with positional metadata.
type TextLine struct {
	Text string
	// Page is the 0-indexed source page.
	Page int
	// Y is the vertical position of the line on its page. Units depend on
	// the source (pixels for OCR, PDF points for text-layer extraction);
	// only relative order within a page is meaningful.
	Y float64
	// Confidence is the recognition confidence in [0,1]. Text-layer
	// extraction reports 1.0.
	Confidence float64
}

// CandidateRegion is the contiguous run of lines believed to hold the
// parameter table, in page-then-vertical order.
type CandidateRegion struct {
	Lines []TextLine
	// FirstPage and LastPage bound the page range the region spans.
	FirstPage int
	LastPage  int
}

// RawRow is one tokenized table row. Any slot may be empty; Value, when
// non-empty, is parseable as a signed decimal, optionally prefixed with a
// comparison symbol ("<" or ">").
type RawRow struct {
	Name  string
	Value string
	Unit  string
	Range string
	// Source holds the line(s) this row was derived from.
	Source []TextLine
}

// Confidence returns the lowest confidence among the row's source lines,
// or 0 if the row has no source.
func (r RawRow) Confidence() float64 {
	if len(r.Source) == 0 {
		return 0
	}
	c := r.Source[0].Confidence
	for _, l := range r.Source[1:] {
		if l.Confidence < c {
			c = l.Confidence
		}
	}
	return c
}

// ExtractedRow is the public output shape for one matched parameter.
type ExtractedRow struct {
	// Parameter is the canonical name from the requested report type's
	// schema. Rows that match no schema entry are dropped, never fabricated.
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
	Unit      string `json:"unit"`
	Range     string `json:"range"`

	// Confidence is the source-line confidence carried forward for
	// dedup decisions. Not serialized.
	Confidence float64 `json:"-"`
	// OutOfDomain is set when the value parsed outside the schema's
	// declared numeric domain. The row is still returned; the flag feeds
	// assembler diagnostics only. Not serialized.
	OutOfDomain bool `json:"-"`
}

// ExtractionResult is an ordered set of extracted rows. Order is the
// schema's canonical parameter order, not document order.
type ExtractionResult struct {
	Rows []ExtractedRow
}

// MarshalJSON emits the rows as a bare JSON array, the success shape of the
// two-shape wire contract (the failure shape is an {"error": ...} object).
func (r *ExtractionResult) MarshalJSON() ([]byte, error) {
	if r.Rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Rows)
}

// Len returns the number of extracted rows.
func (r *ExtractionResult) Len() int {
	return len(r.Rows)
}

// Get returns the row for a canonical parameter name, if present.
func (r *ExtractionResult) Get(parameter string) (ExtractedRow, bool) {
	for _, row := range r.Rows {
		if row.Parameter == parameter {
			return row, true
		}
	}
	return ExtractedRow{}, false
}

// String summarizes the result for diagnostics.
func (r *ExtractionResult) String() string {
	return fmt.Sprintf("ExtractionResult(%d rows)", len(r.Rows))
}
