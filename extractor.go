package labtract

import (
	"context"
	"fmt"
	"time"

	"github.com/tsawler/labtract/assemble"
	"github.com/tsawler/labtract/match"
	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/preprocess"
	"github.com/tsawler/labtract/schema"
	"github.com/tsawler/labtract/segment"
	"github.com/tsawler/labtract/tokenize"
)

// Extractor provides a fluent interface for extracting parameter tables from
// lab-report documents. Each configuration method returns a new Extractor
// instance, making it safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	data []byte

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a copy of the Extractor with a copy of options.
// This ensures immutability: each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		data:    e.data,
		options: e.options.clone(),
		err:     e.err,
	}
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Media declares the document's media kind, skipping magic-byte detection.
//
// Example:
//
//	res, _, err := labtract.FromBytes(data).Media(labtract.MediaPDF).Report("cbc").Extract(ctx)
func (e *Extractor) Media(kind model.MediaKind) *Extractor {
	newExt := e.clone()
	newExt.options.media = kind
	return newExt
}

// Report selects the report type by wire name ("cbc", "lft"),
// case-insensitive. Unrecognized names surface as ErrUnknownReportType from
// the terminal operation.
func (e *Extractor) Report(name string) *Extractor {
	newExt := e.clone()
	newExt.options.report = model.ParseReportType(name)
	if newExt.options.report == model.ReportUnknown && newExt.err == nil {
		newExt.err = fmt.Errorf("%w: %q", ErrUnknownReportType, name)
	}
	return newExt
}

// ReportType selects the report type directly.
func (e *Extractor) ReportType(report model.ReportType) *Extractor {
	newExt := e.clone()
	newExt.options.report = report
	return newExt
}

// MinConfidence sets the recognition-confidence floor in [0,1]. Lines below
// the floor are discarded before segmentation.
func (e *Extractor) MinConfidence(c float64) *Extractor {
	newExt := e.clone()
	newExt.options.preprocess.MinConfidence = c
	return newExt
}

// Budget caps the wall-clock time spent on recognition. Exceeding it aborts
// the extraction with ErrUnreadableDocument. Zero leaves only the caller's
// context deadline.
func (e *Extractor) Budget(d time.Duration) *Extractor {
	newExt := e.clone()
	newExt.options.preprocess.Budget = d
	return newExt
}

// Enhance toggles the pre-OCR image cleanup chain (grayscale, contrast,
// sharpen). On by default.
func (e *Extractor) Enhance(on bool) *Extractor {
	newExt := e.clone()
	newExt.options.preprocess.Enhance = on
	return newExt
}

// Deskew toggles rotation correction of tilted scans before OCR. On by
// default.
func (e *Extractor) Deskew(on bool) *Extractor {
	newExt := e.clone()
	newExt.options.preprocess.Deskew = on
	return newExt
}

// Workers bounds concurrent page recognitions for multi-page documents.
func (e *Extractor) Workers(n int) *Extractor {
	newExt := e.clone()
	newExt.options.preprocess.Workers = n
	return newExt
}

// Language sets the OCR language list ("+"-separated Tesseract codes) for
// the default recognition backend. Ignored when WithRecognizer is used.
func (e *Extractor) Language(lang string) *Extractor {
	newExt := e.clone()
	newExt.options.language = lang
	return newExt
}

// WithRecognizer replaces the default Tesseract backend with a custom
// recognition engine.
func (e *Extractor) WithRecognizer(rec preprocess.Recognizer) *Extractor {
	newExt := e.clone()
	newExt.options.recognizer = rec
	return newExt
}

// MergeSplitRows toggles the merge of label-only lines with adjacent
// value-only lines, which column-major scans produce. On by default.
func (e *Extractor) MergeSplitRows(on bool) *Extractor {
	newExt := e.clone()
	newExt.options.tokenize.MergeSplitRows = on
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Extract runs the full pipeline and returns the ordered extraction result,
// any row-level warnings, and an error if extraction failed. Warnings
// indicate non-fatal issues (rows dropped for missing values or unmatched
// labels); the result is still valid when warnings are present.
//
// Example:
//
//	res, warnings, err := labtract.FromBytes(data).Report("cbc").Extract(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", labtract.FormatWarnings(warnings))
//	}
func (e *Extractor) Extract(ctx context.Context) (*model.ExtractionResult, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	// Resolve the schema first so an unknown report type fails before any
	// recognition work is spent.
	reportSchema, err := schema.For(e.options.report)
	if err != nil {
		return nil, nil, err
	}

	doc := model.NewDocument(e.data, e.options.media, e.options.report)

	rec := e.options.recognizer
	if rec == nil {
		rec = preprocess.TesseractRecognizer{Language: e.options.language}
	}
	pre := preprocess.NewWithRecognizer(e.options.preprocess, rec)

	lines, err := pre.Run(ctx, doc)
	if err != nil {
		return nil, nil, err
	}

	region, err := segment.SegmentWithConfig(lines, e.options.segment)
	if err != nil {
		return nil, nil, err
	}

	rows := tokenize.TokenizeWithConfig(region, e.options.tokenize)

	matched, dropped, err := match.MatchWithConfig(rows, e.options.report, e.options.match)
	if err != nil {
		return nil, nil, err
	}
	warnings := droppedWarnings(dropped)

	result, err := assemble.Assemble(matched, reportSchema)
	if err != nil {
		return nil, warnings, err
	}
	return result, warnings, nil
}

// ExtractJSON runs the pipeline and renders the outcome in the two-shape
// JSON contract: a bare array of {parameter, value, unit, range} objects on
// success, or an {"error": ...} object on failure. It never returns an
// error; failures are encoded in the payload.
func (e *Extractor) ExtractJSON(ctx context.Context) ([]byte, []Warning) {
	result, warnings, err := e.Extract(ctx)
	if err != nil {
		return ErrorPayload(err), warnings
	}
	payload, err := result.MarshalJSON()
	if err != nil {
		return ErrorPayload(err), warnings
	}
	return payload, warnings
}
