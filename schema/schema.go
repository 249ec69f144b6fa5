package schema

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/tsawler/labtract/model"
)

//go:embed data/*.yaml
var schemaFS embed.FS

// schemaFiles maps each registered report type to its reference data file.
// Adding a report type means adding a row here and a constant in model.
var schemaFiles = map[model.ReportType]string{
	model.ReportCBC: "data/cbc.yaml",
	model.ReportLFT: "data/lft.yaml",
}

// ErrUnknownReportType is returned when no schema is registered for the
// requested report type.
var ErrUnknownReportType = errors.New("schema: unknown report type")

// Parameter describes one clinical parameter in a schema.
type Parameter struct {
	// Name is the canonical parameter name used in output rows.
	Name string `yaml:"name"`
	// Aliases are accepted name spellings, matched case- and
	// whitespace-insensitively. The canonical name itself is always
	// accepted and need not be listed.
	Aliases []string `yaml:"aliases"`
	// Unit is the canonical unit string, empty for unitless parameters.
	Unit string `yaml:"unit"`
	// Range is the canonical reference range, used as a fallback when the
	// document carries none.
	Range string `yaml:"range"`
	// Min and Max bound the expected numeric domain when non-nil. Values
	// outside the domain are flagged, not rejected.
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Schema is the full parameter reference data for one report type.
// Parameter order in the data file is the canonical output order.
type Schema struct {
	Report     model.ReportType
	Parameters []Parameter

	// aliasIndex maps normalized alias -> canonical name.
	aliasIndex map[string]string
	// paramIndex maps canonical name -> position in Parameters.
	paramIndex map[string]int
	// unitSynonyms maps normalized unit spellings (OCR garbles included)
	// to canonical unit strings.
	unitSynonyms map[string]string
}

// schemaFile is the on-disk YAML shape.
type schemaFile struct {
	Report       string            `yaml:"report"`
	UnitSynonyms map[string]string `yaml:"unit_synonyms"`
	Parameters   []Parameter       `yaml:"parameters"`
}

var (
	loadOnce sync.Once
	loadErr  error
	registry map[model.ReportType]*Schema
)

// For returns the schema registered for the given report type, loading all
// embedded schemas on first use. Returns ErrUnknownReportType when no schema
// is registered.
func For(report model.ReportType) (*Schema, error) {
	loadOnce.Do(loadAll)
	if loadErr != nil {
		return nil, loadErr
	}
	s, ok := registry[report]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, report)
	}
	return s, nil
}

// ForName parses a wire report-type string and returns its schema.
func ForName(name string) (*Schema, error) {
	report := model.ParseReportType(name)
	if report == model.ReportUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, name)
	}
	return For(report)
}

func loadAll() {
	registry = make(map[model.ReportType]*Schema, len(schemaFiles))
	for report, path := range schemaFiles {
		s, err := load(report, path)
		if err != nil {
			loadErr = err
			return
		}
		registry[report] = s
	}
}

func load(report model.ReportType, path string) (*Schema, error) {
	data, err := schemaFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: reading %s: %w", path, err)
	}

	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("schema: parsing %s: %w", path, err)
	}
	if f.Report != report.String() {
		return nil, fmt.Errorf("schema: %s declares report %q, registered as %q", path, f.Report, report)
	}

	s := &Schema{
		Report:       report,
		Parameters:   f.Parameters,
		aliasIndex:   make(map[string]string),
		paramIndex:   make(map[string]int),
		unitSynonyms: make(map[string]string),
	}

	for i, p := range f.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("schema: %s: parameter %d has no name", path, i)
		}
		if _, dup := s.paramIndex[p.Name]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate parameter %q", path, p.Name)
		}
		s.paramIndex[p.Name] = i

		for _, alias := range append([]string{p.Name}, p.Aliases...) {
			key := Normalize(alias)
			if key == "" {
				continue
			}
			if owner, dup := s.aliasIndex[key]; dup && owner != p.Name {
				return nil, fmt.Errorf("schema: %s: alias %q claimed by both %q and %q", path, alias, owner, p.Name)
			}
			s.aliasIndex[key] = p.Name
		}
	}

	for spelling, canonical := range f.UnitSynonyms {
		s.unitSynonyms[normalizeUnit(spelling)] = canonical
	}

	return s, nil
}

// Normalize lowercases a label and collapses runs of whitespace to single
// spaces. All alias comparisons happen in this normalized space.
func Normalize(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(unit)
	u = strings.ReplaceAll(u, " ", "")
	u = strings.ReplaceAll(u, ".", "")
	return u
}

// Lookup returns the canonical name for an exact (normalized) alias match.
func (s *Schema) Lookup(label string) (string, bool) {
	name, ok := s.aliasIndex[Normalize(label)]
	return name, ok
}

// Parameter returns the parameter record for a canonical name.
func (s *Schema) Parameter(name string) (Parameter, bool) {
	i, ok := s.paramIndex[name]
	if !ok {
		return Parameter{}, false
	}
	return s.Parameters[i], true
}

// Order returns the canonical position of a parameter name, or -1 when the
// name is not in the schema.
func (s *Schema) Order(name string) int {
	i, ok := s.paramIndex[name]
	if !ok {
		return -1
	}
	return i
}

// CanonicalUnit maps an extracted unit spelling to the schema's canonical
// unit string when it is a known synonym. Unknown spellings are returned
// unchanged, so unusual but legitimate units survive extraction.
func (s *Schema) CanonicalUnit(unit string) string {
	if unit == "" {
		return unit
	}
	if canonical, ok := s.unitSynonyms[normalizeUnit(unit)]; ok {
		return canonical
	}
	return unit
}

// Aliases returns every normalized alias in the schema paired with its
// canonical name. The matcher iterates this for fuzzy resolution.
func (s *Schema) Aliases() map[string]string {
	return s.aliasIndex
}

// InDomain reports whether a value lies inside the parameter's declared
// numeric domain. Parameters without a declared domain accept everything.
func (p Parameter) InDomain(value float64) bool {
	if p.Min != nil && value < *p.Min {
		return false
	}
	if p.Max != nil && value > *p.Max {
		return false
	}
	return true
}
