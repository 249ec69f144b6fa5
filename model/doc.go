// Package model provides the intermediate representation (IR) for the
// lab-report extraction pipeline.
//
// This package defines the data structures passed between pipeline stages.
// Each stage consumes the previous stage's output read-only; none of these
// types is mutated after the producing stage hands it off.
//
// # Pipeline Flow
//
// A [Document] enters the pipeline and flows through five stages:
//
//	Document -> []TextLine -> CandidateRegion -> []RawRow -> []ExtractedRow -> ExtractionResult
//
// # Input
//
// The [Document] type pairs raw bytes with a declared [MediaKind] (image or
// PDF) and a declared [ReportType] (CBC, LFT). Documents are immutable once
// constructed and live for exactly one pipeline run.
//
// # Recognized Text
//
// [TextLine] is one line of recognized text with its page index, vertical
// position, and recognition confidence in [0,1]. [CandidateRegion] is the
// contiguous run of lines believed to hold the parameter table.
//
// # Rows
//
// [RawRow] holds the four tokenized slots (name, value, unit, range) plus
// the source lines it was derived from, for traceability. [ExtractedRow] is
// the public output shape; its Parameter is always a canonical name from the
// requested report type's schema.
//
// # Output
//
// [ExtractionResult] wraps the ordered extracted rows and marshals as a bare
// JSON array of {parameter, value, unit, range} objects, matching the wire
// contract consumed by callers.
package model
