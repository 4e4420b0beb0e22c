// Package viewstate holds the dashboard's control values and turns every
// control change into one complete publication of the chart set.
package viewstate

import (
	"autodash/internal/engine"
	"autodash/internal/logger"
	"autodash/internal/models"
	"fmt"
	"slices"
	"sync"
)

// Reporter computes the chart set for a (mode, year) pair.
type Reporter interface {
	Report(mode models.ReportMode, year int) ([]models.ChartDataset, error)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(mode models.ReportMode, year int) ([]models.ChartDataset, error)

func (f ReporterFunc) Report(mode models.ReportMode, year int) ([]models.ChartDataset, error) {
	return f(mode, year)
}

// Publisher receives every publication, in order.
type Publisher interface {
	Publish(p models.Publication)
}

type PublisherFunc func(p models.Publication)

func (f PublisherFunc) Publish(p models.Publication) { f(p) }

// Controller serialises control events. Each event runs to completion
// (enablement, recompute, publish) under the lock before the next starts.
type Controller struct {
	mu       sync.Mutex
	years    []int
	reporter Reporter
	pub      Publisher
	state    models.ViewState
	current  models.Publication
	version  uint64
}

// New starts in yearly mode on the first year and publishes the initial chart set.
func New(years []int, reporter Reporter, pub Publisher) (*Controller, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: no years available", engine.ErrFatalConfig)
	}
	sorted := slices.Clone(years)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	c := &Controller{
		years:    sorted,
		reporter: reporter,
		pub:      pub,
		state: models.ViewState{
			Mode:         models.YearlyStatistics,
			SelectedYear: sorted[0],
		},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition()
	return c, nil
}

// SetMode switches the report mode. The selected year is kept even when the
// new mode disables the year control.
func (c *Controller) SetMode(mode models.ReportMode) (models.Publication, error) {
	if !mode.Valid() {
		return models.Publication{}, fmt.Errorf("%w: mode %d", engine.ErrInvalidSelection, int(mode))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Mode = mode
	c.transition()
	return c.current, nil
}

// SetYear selects a year. A year outside the dataset is rejected and leaves
// state and the published chart set untouched.
func (c *Controller) SetYear(year int) (models.Publication, error) {
	if _, ok := slices.BinarySearch(c.years, year); !ok {
		return models.Publication{}, fmt.Errorf("%w: year %d is not in the dataset", engine.ErrInvalidSelection, year)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedYear = year
	c.transition()
	return c.current, nil
}

// State returns the current control values.
func (c *Controller) State() models.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the last publication.
func (c *Controller) Current() models.Publication {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Years returns the selectable years, ascending.
func (c *Controller) Years() []int {
	return slices.Clone(c.years)
}

// transition must be called with mu held.
func (c *Controller) transition() {
	c.state.YearControlEnabled = c.state.Mode == models.YearlyStatistics

	p := models.Publication{State: c.state, Status: models.StatusOK}
	charts, err := c.reporter.Report(c.state.Mode, c.state.SelectedYear)
	if err != nil {
		logger.Warn("Report for %s/%d failed: %v", c.state.Mode, c.state.SelectedYear, err)
		p.Status = models.StatusError
		p.Message = err.Error()
		charts = []models.ChartDataset{}
	}
	p.Charts = charts

	etag, err := engine.Fingerprint(charts)
	if err != nil {
		logger.Warn("Fingerprint failed: %v", err)
	}
	p.ETag = etag

	c.version++
	p.Version = c.version
	c.current = p
	if c.pub != nil {
		c.pub.Publish(p)
	}
}
