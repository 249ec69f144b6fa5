package labtract

import (
	"github.com/tsawler/labtract/match"
	"github.com/tsawler/labtract/model"
	"github.com/tsawler/labtract/preprocess"
	"github.com/tsawler/labtract/segment"
	"github.com/tsawler/labtract/tokenize"
)

// ExtractOptions holds configuration for one extraction run.
type ExtractOptions struct {
	media  model.MediaKind
	report model.ReportType

	preprocess preprocess.Config
	segment    segment.Config
	tokenize   tokenize.Config
	match      match.Config

	// language is the Tesseract language list for the default recognizer.
	language string

	// recognizer overrides the default Tesseract backend when non-nil.
	recognizer preprocess.Recognizer
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		media:      model.MediaAuto,
		report:     model.ReportUnknown,
		preprocess: preprocess.DefaultConfig(),
		segment:    segment.DefaultConfig(),
		tokenize:   tokenize.DefaultConfig(),
		match:      match.DefaultConfig(),
	}
}

// clone creates a copy of ExtractOptions. All fields are value types or
// read-only, so a shallow copy suffices.
func (o ExtractOptions) clone() ExtractOptions {
	return o
}
