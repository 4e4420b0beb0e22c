package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Group is one bucket of a group-by. Order is the sort position of the key:
// the numeric value for numeric keys, the calendar ordinal for months and
// the first-seen index for categories.
type Group struct {
	Key   string
	Order float64
	Value float64
	Count int
}

// CrossGroup is an outer bucket holding the inner buckets of a two-key group-by.
type CrossGroup struct {
	Key    string
	Order  float64
	Groups []Group
}

type aggFunc int

const (
	aggSum aggFunc = iota
	aggMean
)

var monthOrdinals = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// MonthOrdinal maps a month name, abbreviation or number to 1..12.
func MonthOrdinal(month string) (int, bool) {
	m := strings.ToLower(strings.TrimSpace(month))
	if n, ok := monthOrdinals[m]; ok {
		return n, true
	}
	if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
		return n, true
	}
	return 0, false
}

// keyer turns row idx into a group key and sort order. firstSeen is the
// number of distinct keys observed so far and is used for unordered categories.
type keyer func(idx, firstSeen int) (string, float64)

func (d Dataset) keyerFor(f Field) (keyer, error) {
	cs := d.cs
	switch f {
	case FieldYear:
		return func(idx, _ int) (string, float64) {
			y := cs.years.Value(idx)
			return strconv.FormatInt(y, 10), float64(y)
		}, nil
	case FieldMonth:
		return func(idx, firstSeen int) (string, float64) {
			m := cs.months.Value(idx)
			if n, ok := MonthOrdinal(m); ok {
				return m, float64(n)
			}
			return m, float64(13 + firstSeen)
		}, nil
	case FieldVehicleType:
		return func(idx, firstSeen int) (string, float64) {
			return cs.vehicleTypes.Value(idx), float64(firstSeen)
		}, nil
	case FieldRecession:
		return func(idx, _ int) (string, float64) {
			if cs.recession.Value(idx) {
				return "1", 1
			}
			return "0", 0
		}, nil
	case FieldAutomobileSales, FieldAdvertisingExpenditure, FieldUnemploymentRate:
		value, _ := d.valueFor(f)
		return func(idx, _ int) (string, float64) {
			v := value(idx)
			return strconv.FormatFloat(v, 'f', -1, 64), v
		}, nil
	}
	return nil, fmt.Errorf("%w: cannot group by %s", ErrUnsupportedField, f)
}

func (d Dataset) valueFor(f Field) (func(idx int) float64, error) {
	cs := d.cs
	switch f {
	case FieldYear:
		return func(idx int) float64 { return float64(cs.years.Value(idx)) }, nil
	case FieldAutomobileSales:
		return cs.sales.Value, nil
	case FieldAdvertisingExpenditure:
		return cs.adSpend.Value, nil
	case FieldUnemploymentRate:
		return cs.unemployment.Value, nil
	case FieldRecession:
		return func(idx int) float64 {
			if cs.recession.Value(idx) {
				return 1
			}
			return 0
		}, nil
	}
	return nil, fmt.Errorf("%w: %s is not numeric", ErrUnsupportedField, f)
}

type bucket struct {
	key   string
	order float64
	sum   float64
	count int
}

type accumulator struct {
	index   map[string]int
	buckets []*bucket
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

func (a *accumulator) add(key keyer, idx int, v float64) {
	k, order := key(idx, len(a.buckets))
	if i, ok := a.index[k]; ok {
		a.buckets[i].sum += v
		a.buckets[i].count++
		return
	}
	a.index[k] = len(a.buckets)
	a.buckets = append(a.buckets, &bucket{key: k, order: order, sum: v, count: 1})
}

// groups never contains an empty bucket, so the mean is always defined.
func (a *accumulator) groups(fn aggFunc) []Group {
	out := make([]Group, 0, len(a.buckets))
	for _, b := range a.buckets {
		v := b.sum
		if fn == aggMean {
			v = b.sum / float64(b.count)
		}
		out = append(out, Group{Key: b.key, Order: b.order, Value: v, Count: b.count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (d Dataset) group(by, value Field, fn aggFunc) ([]Group, error) {
	key, err := d.keyerFor(by)
	if err != nil {
		return nil, err
	}
	val, err := d.valueFor(value)
	if err != nil {
		return nil, err
	}
	acc := newAccumulator()
	for i := 0; i < d.Len(); i++ {
		idx := d.index(i)
		acc.add(key, idx, val(idx))
	}
	return acc.groups(fn), nil
}

// GroupSum sums value per distinct key of by.
func (d Dataset) GroupSum(by, value Field) ([]Group, error) {
	return d.group(by, value, aggSum)
}

// GroupMean averages value per distinct key of by. An empty dataset yields
// no groups rather than NaN.
func (d Dataset) GroupMean(by, value Field) ([]Group, error) {
	return d.group(by, value, aggMean)
}

// GroupMean2 averages value per (outer, inner) key pair. Only pairs present
// in the data appear.
func (d Dataset) GroupMean2(outer, inner, value Field) ([]CrossGroup, error) {
	outerKey, err := d.keyerFor(outer)
	if err != nil {
		return nil, err
	}
	innerKey, err := d.keyerFor(inner)
	if err != nil {
		return nil, err
	}
	val, err := d.valueFor(value)
	if err != nil {
		return nil, err
	}

	outerAcc := newAccumulator()
	inners := make(map[string]*accumulator)
	for i := 0; i < d.Len(); i++ {
		idx := d.index(i)
		k, _ := outerKey(idx, len(outerAcc.buckets))
		outerAcc.add(outerKey, idx, 0)
		acc, ok := inners[k]
		if !ok {
			acc = newAccumulator()
			inners[k] = acc
		}
		acc.add(innerKey, idx, val(idx))
	}

	outerGroups := outerAcc.groups(aggSum)
	out := make([]CrossGroup, 0, len(outerGroups))
	for _, g := range outerGroups {
		out = append(out, CrossGroup{Key: g.Key, Order: g.Order, Groups: inners[g.Key].groups(aggMean)})
	}
	return out, nil
}
