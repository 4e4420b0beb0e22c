package engine

import (
	"autodash/internal/models"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Chart ids, in publish order per mode.
const (
	ChartYearlyTrend       = "yearly-trend"
	ChartMonthlyTotal      = "monthly-total"
	ChartVehicleTypeMean   = "vehicle-type-mean"
	ChartExpenditureShare  = "expenditure-share"
	ChartRecessionTrend    = "recession-trend"
	ChartRecessionVehicles = "recession-vehicle-mean"
	ChartRecessionSpend    = "recession-expenditure-share"
	ChartUnemploymentShift = "unemployment-effect"
)

const (
	labelYear         = "Year"
	labelMonth        = "Month"
	labelVehicleType  = "Vehicle Type"
	labelUnemployment = "Unemployment Rate"
	labelSales        = "Automobile Sales"
	labelAdSpend      = "Advertising Expenditure"
)

type chartBuilder func() (models.ChartDataset, error)

// ComputeReport maps (mode, year) to the charts for that mode. It has no side
// effects; the same arguments always give the same charts. year is ignored
// outside YearlyStatistics. An unknown mode yields no charts.
func ComputeReport(mode models.ReportMode, year int, data Dataset) ([]models.ChartDataset, error) {
	switch mode {
	case models.RecessionPeriodStatistics:
		return recessionReport(data)
	case models.YearlyStatistics:
		return yearlyReport(year, data)
	}
	return []models.ChartDataset{}, nil
}

func recessionReport(data Dataset) ([]models.ChartDataset, error) {
	rec := data.Filter(RecessionOnly)

	return buildCharts(
		func() (models.ChartDataset, error) {
			groups, err := rec.GroupMean(FieldYear, FieldAutomobileSales)
			return singleSeries(ChartRecessionTrend, models.ChartLine,
				"Average Automobile Sales During Recession", labelYear, labelSales, groups), err
		},
		func() (models.ChartDataset, error) {
			groups, err := rec.GroupMean(FieldVehicleType, FieldAutomobileSales)
			return singleSeries(ChartRecessionVehicles, models.ChartBar,
				"Average Vehicles Sold by Type During Recession", labelVehicleType, labelSales, groups), err
		},
		func() (models.ChartDataset, error) {
			groups, err := rec.GroupSum(FieldVehicleType, FieldAdvertisingExpenditure)
			return share(ChartRecessionSpend,
				"Advertising Expenditure Share by Vehicle Type During Recession", groups), err
		},
		func() (models.ChartDataset, error) {
			cross, err := rec.GroupMean2(FieldVehicleType, FieldUnemploymentRate, FieldAutomobileSales)
			return groupedBars(ChartUnemploymentShift,
				"Effect of Unemployment Rate on Vehicle Type and Sales", labelUnemployment, labelSales, cross), err
		},
	)
}

func yearlyReport(year int, data Dataset) ([]models.ChartDataset, error) {
	if _, ok := slices.BinarySearch(data.DistinctYears(), year); !ok {
		return nil, fmt.Errorf("%w: year %d is not in the dataset", ErrInvalidSelection, year)
	}
	inYear := data.Filter(YearEquals(year))

	return buildCharts(
		func() (models.ChartDataset, error) {
			groups, err := data.GroupMean(FieldYear, FieldAutomobileSales)
			return singleSeries(ChartYearlyTrend, models.ChartLine,
				"Yearly Automobile Sales (Overall)", labelYear, labelSales, groups), err
		},
		func() (models.ChartDataset, error) {
			groups, err := data.GroupSum(FieldMonth, FieldAutomobileSales)
			return singleSeries(ChartMonthlyTotal, models.ChartLine,
				"Total Monthly Automobile Sales", labelMonth, labelSales, groups), err
		},
		func() (models.ChartDataset, error) {
			groups, err := inYear.GroupMean(FieldVehicleType, FieldAutomobileSales)
			return singleSeries(ChartVehicleTypeMean, models.ChartBar,
				fmt.Sprintf("Average Vehicles Sold by Vehicle Type in %d", year), labelVehicleType, labelSales, groups), err
		},
		func() (models.ChartDataset, error) {
			groups, err := inYear.GroupSum(FieldVehicleType, FieldAdvertisingExpenditure)
			return share(ChartExpenditureShare,
				fmt.Sprintf("Advertisement Expenditure by Vehicle Type in %d", year), groups), err
		},
	)
}

// buildCharts runs the builders concurrently. Each result lands in the slot
// of its builder, so the output order never depends on scheduling.
func buildCharts(builders ...chartBuilder) ([]models.ChartDataset, error) {
	charts := make([]models.ChartDataset, len(builders))
	var g errgroup.Group
	for i, build := range builders {
		g.Go(func() error {
			c, err := build()
			if err != nil {
				return err
			}
			charts[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return charts, nil
}

func points(groups []Group) []models.Point {
	pts := make([]models.Point, 0, len(groups))
	for _, g := range groups {
		pts = append(pts, models.Point{Label: g.Key, Value: g.Value})
	}
	return pts
}

func singleSeries(id string, kind models.ChartKind, title, x, y string, groups []Group) models.ChartDataset {
	c := models.ChartDataset{ID: id, Kind: kind, Title: title, XLabel: x, YLabel: y, Series: []models.Series{}}
	if len(groups) == 0 {
		c.Empty = true
		return c
	}
	c.Series = append(c.Series, models.Series{Name: y, Points: points(groups)})
	return c
}

// share builds a pie: slices are raw sums and Total is their sum, so the
// renderer derives proportions.
func share(id, title string, groups []Group) models.ChartDataset {
	c := singleSeries(id, models.ChartPie, title, labelVehicleType, labelAdSpend, groups)
	for _, g := range groups {
		c.Total += g.Value
	}
	return c
}

func groupedBars(id, title, x, y string, cross []CrossGroup) models.ChartDataset {
	c := models.ChartDataset{ID: id, Kind: models.ChartGroupedBar, Title: title, XLabel: x, YLabel: y, Series: []models.Series{}}
	if len(cross) == 0 {
		c.Empty = true
		return c
	}
	for _, cg := range cross {
		c.Series = append(c.Series, models.Series{Name: cg.Key, Points: points(cg.Groups)})
	}
	return c
}
