package engine

import (
	"autodash/internal/models"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

type reportKey struct {
	mode models.ReportMode
	year int
}

// ReportCache memoises ComputeReport by (mode, year). The dataset never
// changes, so entries never go stale. Concurrent misses for the same key
// share one computation.
type ReportCache struct {
	data    Dataset
	enabled bool

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[reportKey][]models.ChartDataset

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewReportCache(data Dataset, enabled bool) *ReportCache {
	return &ReportCache{
		data:    data,
		enabled: enabled,
		entries: make(map[reportKey][]models.ChartDataset),
	}
}

func (rc *ReportCache) Data() Dataset {
	return rc.data
}

// Report returns the charts for (mode, year). Returned charts are shared
// between callers and must not be modified.
func (rc *ReportCache) Report(mode models.ReportMode, year int) ([]models.ChartDataset, error) {
	if !rc.enabled {
		return ComputeReport(mode, year, rc.data)
	}

	key := reportKey{mode: mode, year: year}
	if mode != models.YearlyStatistics {
		key.year = 0
	}

	rc.mu.RLock()
	charts, ok := rc.entries[key]
	rc.mu.RUnlock()
	if ok {
		rc.hits.Add(1)
		return charts, nil
	}

	v, err, _ := rc.group.Do(fmt.Sprintf("%d/%d", key.mode, key.year), func() (interface{}, error) {
		rc.misses.Add(1)
		charts, err := ComputeReport(key.mode, key.year, rc.data)
		if err != nil {
			return nil, err
		}
		rc.mu.Lock()
		rc.entries[key] = charts
		rc.mu.Unlock()
		return charts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ChartDataset), nil
}

// Stats reports cache hits and misses.
func (rc *ReportCache) Stats() (hits, misses uint64) {
	return rc.hits.Load(), rc.misses.Load()
}

// Fingerprint hashes the JSON encoding of charts. Equal chart sets always
// have equal fingerprints.
func Fingerprint(charts []models.ChartDataset) (string, error) {
	b, err := json.Marshal(charts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxh3.Hash(b)), nil
}
