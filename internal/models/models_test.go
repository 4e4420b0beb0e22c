package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestParseReportMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportMode
		wantErr bool
	}{
		{"Yearly Statistics", YearlyStatistics, false},
		{"yearly", YearlyStatistics, false},
		{"  RECESSION PERIOD STATISTICS ", RecessionPeriodStatistics, false},
		{"recession", RecessionPeriodStatistics, false},
		{"monthly", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReportMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReportMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseReportMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReportModeJSON(t *testing.T) {
	b, err := json.Marshal(ViewState{Mode: RecessionPeriodStatistics, SelectedYear: 2007})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"mode":"Recession Period Statistics","selected_year":2007,"year_control_enabled":false}`
	if string(b) != want {
		t.Errorf("Expected %s, got %s", want, b)
	}

	var req struct {
		Mode ReportMode `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"Yearly Statistics"}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.Mode != YearlyStatistics {
		t.Errorf("Expected YearlyStatistics, got %v", req.Mode)
	}

	if err := json.Unmarshal([]byte(`{"mode":"Weekly"}`), &req); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestReportModeValid(t *testing.T) {
	if ReportMode(0).Valid() {
		t.Error("zero mode must not be valid")
	}
	if !YearlyStatistics.Valid() || !RecessionPeriodStatistics.Valid() {
		t.Error("declared modes must be valid")
	}
	if got := ReportMode(9).String(); got != "ReportMode(9)" {
		t.Errorf("unexpected String() for unknown mode: %s", got)
	}
	if len(ModeOptions()) != 2 {
		t.Errorf("Expected 2 mode options, got %d", len(ModeOptions()))
	}
}
