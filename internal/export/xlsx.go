package export

import (
	"autodash/internal/models"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook writes one sheet per chart: the title in A1, a header row with the
// x label and one column per series, then one row per x value. Points missing
// from a series are left blank.
func Workbook(charts []models.ChartDataset) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	if len(charts) == 0 {
		if err := f.SetCellValue("Sheet1", "A1", "No data"); err != nil {
			return nil, err
		}
		return f, nil
	}

	for i, chart := range charts {
		sheet := sheetName(chart, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeChart(f, sheet, chart, headerStyle); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	return f, nil
}

func sheetName(chart models.ChartDataset, i int) string {
	name := chart.ID
	if name == "" {
		name = fmt.Sprintf("chart-%d", i+1)
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func writeChart(f *excelize.File, sheet string, chart models.ChartDataset, headerStyle int) error {
	if err := f.SetCellValue(sheet, "A1", chart.Title); err != nil {
		return err
	}

	header := []interface{}{chart.XLabel}
	for _, s := range chart.Series {
		header = append(header, s.Name)
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 2, 2, headerStyle); err != nil {
		return err
	}

	// x values in first-seen order across series
	var labels []string
	rowOf := make(map[string]int)
	for _, s := range chart.Series {
		for _, p := range s.Points {
			if _, ok := rowOf[p.Label]; !ok {
				rowOf[p.Label] = len(labels) + 3
				labels = append(labels, p.Label)
			}
		}
	}
	for _, l := range labels {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", rowOf[l]), l); err != nil {
			return err
		}
	}
	for col, s := range chart.Series {
		for _, p := range s.Points {
			cell, err := excelize.CoordinatesToCellName(col+2, rowOf[p.Label])
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, p.Value); err != nil {
				return err
			}
		}
	}

	if chart.Kind == models.ChartPie {
		total := len(labels) + 3
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", total), "Total"); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", total), chart.Total); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheet, "A", "A", 24)
}
