package engine

import (
	"autodash/internal/logger"
	"autodash/internal/models"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// column header -> field, after normalisation (lower case, no '_' or spaces)
var requiredColumns = map[string]Field{
	"year":                   FieldYear,
	"month":                  FieldMonth,
	"vehicletype":            FieldVehicleType,
	"automobilesales":        FieldAutomobileSales,
	"advertisingexpenditure": FieldAdvertisingExpenditure,
	"unemploymentrate":       FieldUnemploymentRate,
	"recession":              FieldRecession,
}

func normaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer("_", "", " ", "").Replace(h)
}

// Load reads the sales CSV from a file path or an http(s) URL.
func Load(ctx context.Context, source string, timeout time.Duration) (*ColumnStore, error) {
	start := time.Now()
	logger.Info("Loading dataset from %s", source)

	rc, err := open(ctx, source, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFatalConfig, err)
	}
	defer rc.Close()

	records, err := ParseCSV(rc)
	if err != nil {
		return nil, err
	}

	store := NewColumnStore(records)
	logger.Info("Load complete. Rows: %d. Time: %v", store.NumRows(), time.Since(start))
	return store, nil
}

func open(ctx context.Context, source string, timeout time.Duration) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
	}
	return resp.Body, nil
}

// ParseCSV decodes sales rows. Columns not needed for reporting are skipped.
func ParseCSV(r io.Reader) ([]models.SalesRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: dataset is empty", ErrFatalConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrFatalConfig, err)
	}

	cols := make(map[Field]int, len(requiredColumns))
	for i, h := range header {
		if f, ok := requiredColumns[normaliseHeader(h)]; ok {
			cols[f] = i
		}
	}
	var missing []string
	for _, f := range requiredColumns {
		if _, ok := cols[f]; !ok {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing columns %s", ErrFatalConfig, strings.Join(missing, ", "))
	}

	records := make([]models.SalesRecord, 0, 512)
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFatalConfig, line, err)
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFatalConfig, line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", ErrFatalConfig)
	}
	return records, nil
}

func parseRow(row []string, cols map[Field]int) (models.SalesRecord, error) {
	var rec models.SalesRecord
	cell := func(f Field) (string, error) {
		i := cols[f]
		if i >= len(row) {
			return "", fmt.Errorf("missing %s", f)
		}
		return strings.TrimSpace(row[i]), nil
	}
	number := func(f Field) (float64, error) {
		s, err := cell(f)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", f, s)
		}
		return v, nil
	}

	year, err := number(FieldYear)
	if err != nil {
		return rec, err
	}
	rec.Year = int(year)

	if rec.Month, err = cell(FieldMonth); err != nil {
		return rec, err
	}
	if rec.VehicleType, err = cell(FieldVehicleType); err != nil {
		return rec, err
	}
	if rec.AutomobileSales, err = number(FieldAutomobileSales); err != nil {
		return rec, err
	}
	if rec.AdvertisingExpenditure, err = number(FieldAdvertisingExpenditure); err != nil {
		return rec, err
	}
	if rec.UnemploymentRate, err = number(FieldUnemploymentRate); err != nil {
		return rec, err
	}

	flag, err := cell(FieldRecession)
	if err != nil {
		return rec, err
	}
	if b, perr := strconv.ParseBool(flag); perr == nil {
		rec.Recession = b
	} else if v, ferr := strconv.ParseFloat(flag, 64); ferr == nil {
		rec.Recession = v != 0
	} else {
		return rec, fmt.Errorf("recession: %q is not a flag", flag)
	}
	return rec, nil
}
