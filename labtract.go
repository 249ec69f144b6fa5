// Package labtract provides a fluent API for extracting structured parameter
// tables from lab-report documents (scanned images or PDFs).
//
// Basic usage:
//
//	res, warnings, err := labtract.FromBytes(data).
//	    Report("cbc").
//	    Extract(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", labtract.FormatWarnings(warnings))
//	}
//
// With options:
//
//	res, _, err := labtract.FromFile("report.pdf").
//	    Media(labtract.MediaPDF).
//	    Report("lft").
//	    MinConfidence(0.5).
//	    Extract(ctx)
//
// For advanced use cases, the lower-level stage packages (preprocess, segment,
// tokenize, match, assemble) are also available.
package labtract

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tsawler/labtract/assemble"
	"github.com/tsawler/labtract/format"
	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/preprocess"
	"github.com/tsawler/labtract/schema"
	"github.com/tsawler/labtract/segment"
)

// Media kinds, re-exported for fluent configuration.
const (
	MediaAuto  = model.MediaAuto
	MediaImage = model.MediaImage
	MediaPDF   = model.MediaPDF
)

// Sentinel errors from the stage packages, re-exported so callers can use
// errors.Is without importing the stages. All four are terminal: an
// extraction either returns a non-empty result or exactly one of these.
var (
	// ErrUnreadableDocument: no usable text could be recognized.
	ErrUnreadableDocument = preprocess.ErrUnreadableDocument
	// ErrNoTableFound: text was read but no table-shaped region exists.
	ErrNoTableFound = segment.ErrNoTableFound
	// ErrUnknownReportType: the requested report type has no schema.
	ErrUnknownReportType = schema.ErrUnknownReportType
	// ErrEmptyExtraction: a table was found but no row matched the schema.
	ErrEmptyExtraction = assemble.ErrEmptyExtraction
)

// FromBytes creates an Extractor for in-memory document bytes.
//
// Example:
//
//	res, warnings, err := labtract.FromBytes(data).Report("cbc").Extract(ctx)
func FromBytes(data []byte) *Extractor {
	return &Extractor{
		data:    data,
		options: defaultOptions(),
	}
}

// FromFile creates an Extractor for a document on disk. The file is read
// eagerly; a read failure surfaces from the terminal operation. The media
// kind is inferred from the file extension and can be overridden with Media.
func FromFile(filename string) *Extractor {
	e := &Extractor{options: defaultOptions()}

	data, err := os.ReadFile(filename)
	if err != nil {
		e.err = fmt.Errorf("failed to read %s: %w", filename, err)
		return e
	}
	e.data = data
	e.options.media = format.Detect(filename)
	return e
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustExtract is a helper that wraps a call to Extract and panics if the
// error is non-nil. It discards warnings and returns just the result.
//
// Example:
//
//	res := labtract.MustExtract(labtract.FromBytes(data).Report("cbc").Extract(ctx))
func MustExtract[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ErrorPayload renders an error as the JSON failure shape, an object with a
// single "error" key. Together with ExtractionResult's bare-array success
// shape this forms the two-shape wire contract.
func ErrorPayload(err error) []byte {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return payload
}
