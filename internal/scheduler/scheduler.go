// Package scheduler implements the follow-the-sun query strategy: pick the
// timezone band whose local noon is closest to now, and widen to adjacent
// bands when the current one yields too few events.
package scheduler

import (
	"context"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"threatmap/internal/logger"
	"threatmap/internal/model"
)

// Scheduler selects which countries to query per cycle. It holds no state
// beyond the static band catalog and its expansion tuning.
type Scheduler struct {
	bands     []model.TimezoneBand
	threshold int     // expand when deduped event count is below this
	maxExtra  int     // extra bands per expansion
	window    float64 // max offset delta, hours
	now       func() time.Time
}

type Option func(*Scheduler)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(bands []model.TimezoneBand, threshold, maxExtra int, window float64, opts ...Option) *Scheduler {
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	s := &Scheduler{
		bands:     bands,
		threshold: threshold,
		maxExtra:  maxExtra,
		window:    window,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NoonOffset computes the UTC offset whose local time is noon right now,
// as a fractional hour.
func NoonOffset(t time.Time) float64 {
	utc := t.UTC()
	return 12 - (float64(utc.Hour()) + float64(utc.Minute())/60)
}

// offsetDelta is circular: offsets 24 hours apart are the same band.
func offsetDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 24-d)
}

// CurrentBand returns the catalog band whose UTC offset is closest to the
// current noon offset. Ties break in catalog order.
func (s *Scheduler) CurrentBand() model.TimezoneBand {
	target := NoonOffset(s.now())

	best := s.bands[0]
	bestDelta := offsetDelta(best.UTCOffset, target)
	for _, band := range s.bands[1:] {
		if d := offsetDelta(band.UTCOffset, target); d < bestDelta {
			best = band
			bestDelta = d
		}
	}
	return best
}

// ShouldExpand reports whether the deduplicated event count from the
// primary band is sparse enough to warrant a fallback round.
func (s *Scheduler) ShouldExpand(eventCount int) bool {
	return eventCount < s.threshold
}

// FallbackBands returns up to maxExtra bands within the offset window of
// current (0 < delta <= window), nearest first, catalog order on ties.
func (s *Scheduler) FallbackBands(current model.TimezoneBand) []model.TimezoneBand {
	type scored struct {
		band  model.TimezoneBand
		delta float64
	}

	var near []scored
	for _, band := range s.bands {
		d := offsetDelta(band.UTCOffset, current.UTCOffset)
		if d > 0 && d <= s.window {
			near = append(near, scored{band, d})
		}
	}

	// Insertion keeps catalog order; a stable selection of the nearest
	// bands only needs one pass per slot.
	var picked []model.TimezoneBand
	used := make(map[int]bool, len(near))
	for len(picked) < s.maxExtra && len(picked) < len(near) {
		bestIdx := -1
		for i, c := range near {
			if used[i] {
				continue
			}
			if bestIdx < 0 || c.delta < near[bestIdx].delta {
				bestIdx = i
			}
		}
		used[bestIdx] = true
		picked = append(picked, near[bestIdx].band)
	}
	return picked
}

// FallbackCountries pools the countries of the fallback bands, excluding
// ones already queried in the primary round.
func (s *Scheduler) FallbackCountries(current model.TimezoneBand, queried []string) []string {
	seen := make(map[string]struct{}, len(queried))
	for _, c := range queried {
		seen[c] = struct{}{}
	}

	var pool []string
	for _, band := range s.FallbackBands(current) {
		for _, country := range band.Countries {
			if _, dup := seen[country]; dup {
				continue
			}
			seen[country] = struct{}{}
			pool = append(pool, country)
		}
	}
	return pool
}

// Run invokes cycle once immediately, then at the top of every wall-clock
// hour, until the context is canceled. Aligning to the hour boundary keeps
// refreshes consistent across restarts.
func (s *Scheduler) Run(ctx context.Context, cycle func(context.Context)) {
	cycle(ctx)

	for {
		now := s.now()
		next := now.Truncate(time.Hour).Add(time.Hour)

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			cycle(ctx)
		}
	}
}

// bandsFile is the YAML config structure:
//
//	bands:
//	  - utcOffset: 2
//	    displayName: Eastern Europe & Africa
//	    countries: [Ukraine, Egypt]
type bandsFile struct {
	Bands []model.TimezoneBand `yaml:"bands"`
}

// LoadBands reads the band catalog from a YAML file, falling back to the
// built-in catalog when the file is absent or empty.
func LoadBands(path string) []model.TimezoneBand {
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("bands config not found, using built-in catalog", "path", path)
		return DefaultBands()
	}
	defer f.Close()

	var cfg bandsFile
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		logger.Warn("failed to parse bands config, using built-in catalog", "path", path, "error", err)
		return DefaultBands()
	}
	if len(cfg.Bands) == 0 {
		return DefaultBands()
	}
	return cfg.Bands
}
