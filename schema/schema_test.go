package schema

import (
	"errors"
	"testing"

	"github.com/tsawler/labtract/model"
)

func TestForLoadsRegisteredSchemas(t *testing.T) {
	for _, report := range []model.ReportType{model.ReportCBC, model.ReportLFT} {
		s, err := For(report)
		if err != nil {
			t.Fatalf("For(%v) failed: %v", report, err)
		}
		if s.Report != report {
			t.Errorf("Expected report %v, got %v", report, s.Report)
		}
		if len(s.Parameters) == 0 {
			t.Errorf("Expected parameters for %v, got none", report)
		}
	}
}

func TestForUnknownReportType(t *testing.T) {
	_, err := For(model.ReportUnknown)
	if !errors.Is(err, ErrUnknownReportType) {
		t.Errorf("Expected ErrUnknownReportType, got: %v", err)
	}
}

func TestForNameUnknownString(t *testing.T) {
	_, err := ForName("xyz")
	if !errors.Is(err, ErrUnknownReportType) {
		t.Errorf("Expected ErrUnknownReportType, got: %v", err)
	}
}

func TestLookupIsCaseAndWhitespaceInsensitive(t *testing.T) {
	s, err := For(model.ReportCBC)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		label string
		want  string
	}{
		{"hemoglobin", "Hemoglobin"},
		{"HAEMOGLOBIN", "Hemoglobin"},
		{"  Hb  ", "Hemoglobin"},
		{"total   leucocyte   count", "Total Leucocyte Count"},
		{"WBC", "Total Leucocyte Count"},
		{"packed cell volume", "Hct"},
	}

	for _, tt := range tests {
		got, ok := s.Lookup(tt.label)
		if !ok {
			t.Errorf("Lookup(%q): expected a match", tt.label)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q): Expected %q, got %q", tt.label, tt.want, got)
		}
	}
}

// Every alias must map to exactly one canonical name; duplicate claims fail
// the schema load, so a successful load already proves uniqueness. This test
// additionally checks that every canonical name resolves to itself.
func TestCanonicalNamesResolveToThemselves(t *testing.T) {
	for _, report := range []model.ReportType{model.ReportCBC, model.ReportLFT} {
		s, err := For(report)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range s.Parameters {
			got, ok := s.Lookup(p.Name)
			if !ok || got != p.Name {
				t.Errorf("%v: Lookup(%q) = %q, %v; expected the name itself", report, p.Name, got, ok)
			}
		}
	}
}

func TestOrderFollowsDeclaration(t *testing.T) {
	s, err := For(model.ReportCBC)
	if err != nil {
		t.Fatal(err)
	}
	if s.Order("Hemoglobin") != 0 {
		t.Errorf("Expected Hemoglobin at position 0, got %d", s.Order("Hemoglobin"))
	}
	if s.Order("Platelet Count") <= s.Order("RBC Count") {
		t.Error("Expected Platelet Count after RBC Count in canonical order")
	}
	if s.Order("No Such Parameter") != -1 {
		t.Errorf("Expected -1 for unknown parameter, got %d", s.Order("No Such Parameter"))
	}
}

func TestCanonicalUnit(t *testing.T) {
	s, err := For(model.ReportLFT)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"mg/dl", "mg/dL"},
		{"MG/DL", "mg/dL"},
		{"mgidl", "mg/dL"},
		{"u/i", "U/L"},
		{"iu/l", "U/L"},
		{"furlongs", "furlongs"}, // unknown units pass through
		{"", ""},
	}

	for _, tt := range tests {
		if got := s.CanonicalUnit(tt.in); got != tt.want {
			t.Errorf("CanonicalUnit(%q): Expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestInDomain(t *testing.T) {
	s, err := For(model.ReportCBC)
	if err != nil {
		t.Fatal(err)
	}

	p, ok := s.Parameter("Hemoglobin")
	if !ok {
		t.Fatal("Hemoglobin not in CBC schema")
	}
	if !p.InDomain(13.5) {
		t.Error("Expected 13.5 in Hemoglobin domain")
	}
	if p.InDomain(999) {
		t.Error("Expected 999 outside Hemoglobin domain")
	}

	// PCT declares no domain, so everything is in range.
	p, ok = s.Parameter("PCT")
	if !ok {
		t.Fatal("PCT not in CBC schema")
	}
	if !p.InDomain(123456) {
		t.Error("Expected undeclared domain to accept any value")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"hemoglobin", "hemoglobin", 0},
		{"hemoglobin", "hemoglobim", 1},
		{"mch", "mcv", 1},
		{"", "abc", 3},
	}

	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q): Expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance("hemoglobin", "hemoglobim", 1) {
		t.Error("Expected one substitution within tolerance 1")
	}
	if WithinTolerance("hemoglobin", "hemoglobin xx", 1) {
		t.Error("Expected length gate to reject strings 3 edits apart")
	}
	if WithinTolerance("mch", "mcv", 0) {
		t.Error("Expected tolerance 0 to demand equality")
	}
	if !WithinTolerance("mch", "mch", 0) {
		t.Error("Expected equal strings within tolerance 0")
	}
}
