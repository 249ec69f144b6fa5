// Package schema holds the static parameter reference data for each
// registered report type.
//
// A [Schema] maps canonical parameter names to accepted name aliases, a
// canonical unit, a reference range, and an optional numeric domain. Schemas
// are reference data: they are compiled into the binary as YAML, loaded once
// on first use, and never mutated, so concurrent readers need no locking.
//
// Adding a report type is a data addition: add a model.ReportType constant,
// drop a YAML file into data/, and register it in the file table. No
// pipeline code changes.
//
// The package also provides the pure edit-distance helpers the matcher uses
// for fuzzy alias resolution ([Distance], [WithinTolerance]); they are kept
// here, outside any stateful component, so they can be tested in isolation.
package schema
