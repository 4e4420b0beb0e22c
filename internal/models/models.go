package models

import (
	"fmt"
	"strings"
)

// SalesRecord is one row of the automobile sales table.
type SalesRecord struct {
	Year                   int     `json:"year"`
	Month                  string  `json:"month"`
	VehicleType            string  `json:"vehicle_type"`
	AutomobileSales        float64 `json:"automobile_sales"`
	AdvertisingExpenditure float64 `json:"advertising_expenditure"`
	UnemploymentRate       float64 `json:"unemployment_rate"`
	Recession              bool    `json:"recession"`
}

// ReportMode selects which set of charts the dashboard shows.
// The zero value is not a valid mode.
type ReportMode int

const (
	YearlyStatistics ReportMode = iota + 1
	RecessionPeriodStatistics
)

var modeLabels = map[ReportMode]string{
	YearlyStatistics:          "Yearly Statistics",
	RecessionPeriodStatistics: "Recession Period Statistics",
}

func (m ReportMode) String() string {
	if l, ok := modeLabels[m]; ok {
		return l
	}
	return fmt.Sprintf("ReportMode(%d)", int(m))
}

func (m ReportMode) Valid() bool {
	_, ok := modeLabels[m]
	return ok
}

// ParseReportMode accepts the dropdown label ("Yearly Statistics") or a short
// alias ("yearly", "recession"), case-insensitively.
func ParseReportMode(s string) (ReportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yearly statistics", "yearly":
		return YearlyStatistics, nil
	case "recession period statistics", "recession":
		return RecessionPeriodStatistics, nil
	}
	return 0, fmt.Errorf("unknown report mode %q", s)
}

func (m ReportMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid report mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *ReportMode) UnmarshalText(b []byte) error {
	parsed, err := ParseReportMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ModeOption is one entry of the statistics dropdown.
type ModeOption struct {
	Label string     `json:"label"`
	Value ReportMode `json:"value"`
}

// ModeOptions lists the selectable modes in display order.
func ModeOptions() []ModeOption {
	return []ModeOption{
		{Label: YearlyStatistics.String(), Value: YearlyStatistics},
		{Label: RecessionPeriodStatistics.String(), Value: RecessionPeriodStatistics},
	}
}

// ViewState is the pair of control values plus the derived enablement.
type ViewState struct {
	Mode               ReportMode `json:"mode"`
	SelectedYear       int        `json:"selected_year"`
	YearControlEnabled bool       `json:"year_control_enabled"`
}

type ChartKind string

const (
	ChartLine       ChartKind = "line"
	ChartBar        ChartKind = "bar"
	ChartPie        ChartKind = "pie"
	ChartGroupedBar ChartKind = "grouped_bar"
)

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ChartDataset is a chart-ready aggregation result. It is never mutated
// after creation, so it may be shared between readers.
type ChartDataset struct {
	ID     string    `json:"id"`
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	Series []Series  `json:"series"`
	Empty  bool      `json:"empty"`
	Total  float64   `json:"total,omitempty"`
}

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Publication is what the controller hands to the render side after each
// transition: enablement and chart set travel together.
type Publication struct {
	State   ViewState      `json:"state"`
	Charts  []ChartDataset `json:"charts"`
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Version uint64         `json:"version"`
	ETag    string         `json:"etag"`
}
