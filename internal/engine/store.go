package engine

import (
	"autodash/internal/models"
	"sort"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// Field names a column of the sales table.
type Field int

const (
	FieldYear Field = iota
	FieldMonth
	FieldVehicleType
	FieldAutomobileSales
	FieldAdvertisingExpenditure
	FieldUnemploymentRate
	FieldRecession
)

var salesSchema = arrow.NewSchema([]arrow.Field{
	{Name: "year", Type: arrow.PrimitiveTypes.Int64},
	{Name: "month", Type: arrow.BinaryTypes.String},
	{Name: "vehicle_type", Type: arrow.BinaryTypes.String},
	{Name: "automobile_sales", Type: arrow.PrimitiveTypes.Float64},
	{Name: "advertising_expenditure", Type: arrow.PrimitiveTypes.Float64},
	{Name: "unemployment_rate", Type: arrow.PrimitiveTypes.Float64},
	{Name: "recession", Type: arrow.FixedWidthTypes.Boolean},
}, nil)

func (f Field) String() string {
	if int(f) >= 0 && int(f) < len(salesSchema.Fields()) {
		return salesSchema.Field(int(f)).Name
	}
	return "unknown"
}

// ColumnStore holds the sales table as a single immutable arrow record.
// Column order follows the Field constants.
type ColumnStore struct {
	record arrow.Record

	years        *array.Int64
	months       *array.String
	vehicleTypes *array.String
	sales        *array.Float64
	adSpend      *array.Float64
	unemployment *array.Float64
	recession    *array.Boolean
}

// NewColumnStore copies records into arrow columns.
func NewColumnStore(records []models.SalesRecord) *ColumnStore {
	b := array.NewRecordBuilder(memory.NewGoAllocator(), salesSchema)
	defer b.Release()

	years := b.Field(int(FieldYear)).(*array.Int64Builder)
	months := b.Field(int(FieldMonth)).(*array.StringBuilder)
	types := b.Field(int(FieldVehicleType)).(*array.StringBuilder)
	sales := b.Field(int(FieldAutomobileSales)).(*array.Float64Builder)
	adSpend := b.Field(int(FieldAdvertisingExpenditure)).(*array.Float64Builder)
	unemployment := b.Field(int(FieldUnemploymentRate)).(*array.Float64Builder)
	recession := b.Field(int(FieldRecession)).(*array.BooleanBuilder)

	for _, r := range records {
		years.Append(int64(r.Year))
		months.Append(r.Month)
		types.Append(r.VehicleType)
		sales.Append(r.AutomobileSales)
		adSpend.Append(r.AdvertisingExpenditure)
		unemployment.Append(r.UnemploymentRate)
		recession.Append(r.Recession)
	}

	rec := b.NewRecord()
	return &ColumnStore{
		record:       rec,
		years:        rec.Column(int(FieldYear)).(*array.Int64),
		months:       rec.Column(int(FieldMonth)).(*array.String),
		vehicleTypes: rec.Column(int(FieldVehicleType)).(*array.String),
		sales:        rec.Column(int(FieldAutomobileSales)).(*array.Float64),
		adSpend:      rec.Column(int(FieldAdvertisingExpenditure)).(*array.Float64),
		unemployment: rec.Column(int(FieldUnemploymentRate)).(*array.Float64),
		recession:    rec.Column(int(FieldRecession)).(*array.Boolean),
	}
}

// Release frees the arrow buffers. Datasets derived from the store must not
// be used afterwards.
func (cs *ColumnStore) Release() {
	cs.record.Release()
}

func (cs *ColumnStore) NumRows() int {
	return int(cs.record.NumRows())
}

// All returns a Dataset over every row.
func (cs *ColumnStore) All() Dataset {
	return Dataset{cs: cs}
}

func (cs *ColumnStore) row(i int) models.SalesRecord {
	return models.SalesRecord{
		Year:                   int(cs.years.Value(i)),
		Month:                  cs.months.Value(i),
		VehicleType:            cs.vehicleTypes.Value(i),
		AutomobileSales:        cs.sales.Value(i),
		AdvertisingExpenditure: cs.adSpend.Value(i),
		UnemploymentRate:       cs.unemployment.Value(i),
		Recession:              cs.recession.Value(i),
	}
}

// Dataset is a read-only view of a ColumnStore: the shared columns plus an
// optional row selection. Copying a Dataset is cheap.
type Dataset struct {
	cs       *ColumnStore
	rows     []int
	filtered bool
}

func (d Dataset) Len() int {
	if d.cs == nil {
		return 0
	}
	if d.filtered {
		return len(d.rows)
	}
	return d.cs.NumRows()
}

func (d Dataset) index(i int) int {
	if d.filtered {
		return d.rows[i]
	}
	return i
}

// Record returns the i-th row of the view.
func (d Dataset) Record(i int) models.SalesRecord {
	return d.cs.row(d.index(i))
}

// Filter returns the rows matching pred, in their original order.
func (d Dataset) Filter(pred func(models.SalesRecord) bool) Dataset {
	rows := make([]int, 0)
	for i := 0; i < d.Len(); i++ {
		idx := d.index(i)
		if pred(d.cs.row(idx)) {
			rows = append(rows, idx)
		}
	}
	return Dataset{cs: d.cs, rows: rows, filtered: true}
}

func RecessionOnly(r models.SalesRecord) bool { return r.Recession }

func YearEquals(year int) func(models.SalesRecord) bool {
	return func(r models.SalesRecord) bool { return r.Year == year }
}

// DistinctYears returns the years present, ascending and deduplicated.
func (d Dataset) DistinctYears() []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for i := 0; i < d.Len(); i++ {
		y := int(d.cs.years.Value(d.index(i)))
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
