package engine

import (
	"autodash/internal/models"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

func chartIDs(charts []models.ChartDataset) []string {
	ids := make([]string, len(charts))
	for i, c := range charts {
		ids[i] = c.ID
	}
	return ids
}

func TestYearlyReportShape(t *testing.T) {
	data := fixture(t)
	want := []string{ChartYearlyTrend, ChartMonthlyTotal, ChartVehicleTypeMean, ChartExpenditureShare}

	for _, year := range data.DistinctYears() {
		charts, err := ComputeReport(models.YearlyStatistics, year, data)
		if err != nil {
			t.Fatalf("year %d: %v", year, err)
		}
		if !reflect.DeepEqual(chartIDs(charts), want) {
			t.Errorf("year %d: expected %v, got %v", year, want, chartIDs(charts))
		}
	}
}

func TestYearlyReportValues(t *testing.T) {
	data := fixture(t)
	charts, err := ComputeReport(models.YearlyStatistics, 2005, data)
	if err != nil {
		t.Fatal(err)
	}

	// A. overall trend covers every year, not just the selection
	trend := charts[0]
	if trend.Kind != models.ChartLine || trend.Title != "Yearly Automobile Sales (Overall)" {
		t.Errorf("Unexpected trend chart header: %+v", trend)
	}
	pts := trend.Series[0].Points
	if len(pts) != 3 || pts[0].Label != "2005" || pts[0].Value != 250 || pts[2].Label != "2007" || pts[2].Value != 70 {
		t.Errorf("Unexpected trend points: %+v", pts)
	}

	// B. monthly totals in calendar order
	months := charts[1].Series[0].Points
	if months[0].Label != "Jan" || months[len(months)-1].Label != "Dec" {
		t.Errorf("Expected Jan..Dec ordering, got %+v", months)
	}

	// C. exactly one bar per vehicle type of 2005
	bars := charts[2]
	if bars.Kind != models.ChartBar || bars.Title != "Average Vehicles Sold by Vehicle Type in 2005" {
		t.Errorf("Unexpected bar chart header: %+v", bars)
	}
	got := map[string]float64{}
	for _, p := range bars.Series[0].Points {
		got[p.Label] = p.Value
	}
	want := map[string]float64{"Supperior": 100, "Small": 300, "Medium": 300}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected bars %v, got %v", want, got)
	}

	// D. pie for 2005 only
	pie := charts[3]
	if pie.Kind != models.ChartPie || pie.Total != 100 {
		t.Errorf("Expected pie with total 100, got %+v", pie)
	}
}

func TestYearlyReportInvalidYear(t *testing.T) {
	data := fixture(t)
	_, err := ComputeReport(models.YearlyStatistics, 1999, data)
	if !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("Expected ErrInvalidSelection, got %v", err)
	}
}

func TestRecessionReport(t *testing.T) {
	data := fixture(t)
	charts, err := ComputeReport(models.RecessionPeriodStatistics, 2005, data)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{ChartRecessionTrend, ChartRecessionVehicles, ChartRecessionSpend, ChartUnemploymentShift}
	if !reflect.DeepEqual(chartIDs(charts), want) {
		t.Fatalf("Expected %v, got %v", want, chartIDs(charts))
	}

	// recession rows exist only in 2007
	trend := charts[0].Series[0].Points
	if len(trend) != 1 || trend[0].Label != "2007" || trend[0].Value != 70 {
		t.Errorf("Expected trend domain {2007} with mean 70, got %+v", trend)
	}

	grouped := charts[3]
	if grouped.Kind != models.ChartGroupedBar || len(grouped.Series) != 2 {
		t.Fatalf("Expected grouped bars with 2 series, got %+v", grouped)
	}
	if grouped.Series[0].Name != "Small" || len(grouped.Series[0].Points) != 2 {
		t.Errorf("Unexpected Small series: %+v", grouped.Series[0])
	}
}

func TestRecessionReportIgnoresYear(t *testing.T) {
	data := fixture(t)
	a, err := ComputeReport(models.RecessionPeriodStatistics, 2005, data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ComputeReport(models.RecessionPeriodStatistics, 2007, data)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ComputeReport(models.RecessionPeriodStatistics, -1, data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a, c) {
		t.Error("Recession report must not depend on the year")
	}
}

func TestComputeReportIdempotent(t *testing.T) {
	data := fixture(t)
	for _, mode := range []models.ReportMode{models.YearlyStatistics, models.RecessionPeriodStatistics} {
		first, err := ComputeReport(mode, 2006, data)
		if err != nil {
			t.Fatal(err)
		}
		second, err := ComputeReport(mode, 2006, data)
		if err != nil {
			t.Fatal(err)
		}
		b1, _ := json.Marshal(first)
		b2, _ := json.Marshal(second)
		if string(b1) != string(b2) {
			t.Errorf("%s: repeated computation differs", mode)
		}
	}
}

func TestExpenditureShareSumsToTotal(t *testing.T) {
	data := fixture(t)
	tests := []struct {
		mode   models.ReportMode
		year   int
		subset Dataset
		index  int
	}{
		{models.YearlyStatistics, 2005, data.Filter(YearEquals(2005)), 3},
		{models.YearlyStatistics, 2006, data.Filter(YearEquals(2006)), 3},
		{models.RecessionPeriodStatistics, 2005, data.Filter(RecessionOnly), 2},
	}

	for _, tt := range tests {
		charts, err := ComputeReport(tt.mode, tt.year, data)
		if err != nil {
			t.Fatal(err)
		}
		var want float64
		for i := 0; i < tt.subset.Len(); i++ {
			want += tt.subset.Record(i).AdvertisingExpenditure
		}
		var sum float64
		for _, p := range charts[tt.index].Series[0].Points {
			sum += p.Value
		}
		if math.Abs(sum-want) > 1e-9 || math.Abs(charts[tt.index].Total-want) > 1e-9 {
			t.Errorf("%s/%d: slices sum to %v (total %v), want %v", tt.mode, tt.year, sum, charts[tt.index].Total, want)
		}
	}
}

func TestRecessionReportEmptySubset(t *testing.T) {
	store := NewColumnStore([]models.SalesRecord{
		{Year: 2005, Month: "Jan", VehicleType: "Small", AutomobileSales: 10},
	})
	defer store.Release()

	charts, err := ComputeReport(models.RecessionPeriodStatistics, 2005, store.All())
	if err != nil {
		t.Fatalf("empty subset must not be an error: %v", err)
	}
	if len(charts) != 4 {
		t.Fatalf("Expected 4 charts, got %d", len(charts))
	}
	for _, c := range charts {
		if !c.Empty || len(c.Series) != 0 {
			t.Errorf("%s: expected explicit empty state, got %+v", c.ID, c)
		}
		if math.IsNaN(c.Total) {
			t.Errorf("%s: total is NaN", c.ID)
		}
	}
}

func TestUnknownModeRendersNothing(t *testing.T) {
	charts, err := ComputeReport(models.ReportMode(0), 2005, fixture(t))
	if err != nil {
		t.Fatal(err)
	}
	if charts == nil || len(charts) != 0 {
		t.Errorf("Expected empty non-nil chart set, got %#v", charts)
	}
}

func TestReportCache(t *testing.T) {
	rc := NewReportCache(fixture(t), true)

	first, err := rc.Report(models.RecessionPeriodStatistics, 2005)
	if err != nil {
		t.Fatal(err)
	}
	second, err := rc.Report(models.RecessionPeriodStatistics, 2006)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached recession reports differ")
	}
	if hits, misses := rc.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss (year ignored in key), got %d/%d", hits, misses)
	}

	if _, err := rc.Report(models.YearlyStatistics, 1999); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("Expected ErrInvalidSelection, got %v", err)
	}
	if _, err := rc.Report(models.YearlyStatistics, 1999); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("errors must not be cached as results, got %v", err)
	}
}

func TestReportCacheConcurrent(t *testing.T) {
	rc := NewReportCache(fixture(t), true)

	var wg sync.WaitGroup
	results := make([][]models.ChartDataset, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			charts, err := rc.Report(models.YearlyStatistics, 2006)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = charts
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Fatalf("result %d differs", i)
		}
	}
}

func TestReportCacheDisabled(t *testing.T) {
	rc := NewReportCache(fixture(t), false)
	if _, err := rc.Report(models.YearlyStatistics, 2005); err != nil {
		t.Fatal(err)
	}
	if hits, misses := rc.Stats(); hits != 0 || misses != 0 {
		t.Errorf("disabled cache must not count, got %d/%d", hits, misses)
	}
}

func TestFingerprint(t *testing.T) {
	data := fixture(t)
	a, _ := ComputeReport(models.YearlyStatistics, 2005, data)
	b, _ := ComputeReport(models.YearlyStatistics, 2005, data)
	c, _ := ComputeReport(models.YearlyStatistics, 2006, data)

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, _ := Fingerprint(b)
	fc, _ := Fingerprint(c)
	if fa != fb {
		t.Error("identical chart sets must share a fingerprint")
	}
	if fa == fc {
		t.Error("different chart sets should not share a fingerprint")
	}
	if len(fa) != 16 {
		t.Errorf("Expected 16 hex chars, got %q", fa)
	}
}
