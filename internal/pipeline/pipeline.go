// Package pipeline runs one full ingestion cycle: fetch, normalize,
// translate, classify, geolocate, dedupe, sort and jitter.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"threatmap/internal/classify"
	"threatmap/internal/jitter"
	"threatmap/internal/logger"
	"threatmap/internal/metrics"
	"threatmap/internal/model"
	"threatmap/internal/normalize"
	"threatmap/internal/retry"
	"threatmap/internal/scheduler"
	"threatmap/internal/search"
	"threatmap/internal/storage"
	"threatmap/internal/translate"
)

// Articles older than this are stale for a live map and are dropped when
// the source reports a publish date at all.
const maxEventAge = 48 * time.Hour

type Pipeline struct {
	providers   []search.Provider
	scheduler   *scheduler.Scheduler
	normalizer  *normalize.Normalizer
	translator  *translate.Translator
	classifier  *classify.Classifier
	seen        storage.SeenStore // nil disables cross-run dedup
	metrics     *metrics.Metrics
	retryCfg    retry.Config
	maxPerQuery int
	concurrency int
}

type Params struct {
	Providers   []search.Provider
	Scheduler   *scheduler.Scheduler
	Normalizer  *normalize.Normalizer
	Translator  *translate.Translator
	Classifier  *classify.Classifier
	Seen        storage.SeenStore
	Metrics     *metrics.Metrics
	Retry       retry.Config
	MaxPerQuery int
	Concurrency int
}

func New(p Params) *Pipeline {
	if p.Concurrency < 1 {
		p.Concurrency = 1
	}
	return &Pipeline{
		providers:   p.Providers,
		scheduler:   p.Scheduler,
		normalizer:  p.Normalizer,
		translator:  p.Translator,
		classifier:  p.Classifier,
		seen:        p.Seen,
		metrics:     p.Metrics,
		retryCfg:    p.Retry,
		maxPerQuery: p.MaxPerQuery,
		concurrency: p.Concurrency,
	}
}

// Run executes one cycle for the band whose local time is closest to noon.
// Source failures are collected in the report, never propagated: a run with
// every source down returns an empty Events slice and a populated Errors
// slice.
func (p *Pipeline) Run(ctx context.Context) model.RunReport {
	started := time.Now().UTC()
	band := p.scheduler.CurrentBand()
	report := model.RunReport{
		Band:      band.DisplayName,
		StartedAt: started,
		Display:   map[string]model.GeoLocation{},
	}

	logger.Info("pipeline run started", "band", band.DisplayName, "countries", len(band.Countries))

	seenURLs := make(map[string]struct{})

	raw, errs := p.fetchCountries(ctx, band.Countries)
	report.Errors = append(report.Errors, errs...)

	events := p.process(ctx, raw, seenURLs)
	events = normalize.DedupeEventsByTitle(events)

	if p.scheduler.ShouldExpand(len(events)) {
		extra := p.scheduler.FallbackCountries(band, band.Countries)
		if len(extra) > 0 {
			report.Expanded = true
			logger.Info("expanding to fallback bands", "have", len(events), "extraCountries", len(extra))

			raw, errs = p.fetchCountries(ctx, extra)
			report.Errors = append(report.Errors, errs...)

			events = append(events, p.process(ctx, raw, seenURLs)...)
			events = normalize.DedupeEventsByTitle(events)
		}
	}

	// Last resort when per-country queries stay sparse even after band
	// expansion: one wide regional sweep per capable provider.
	if p.scheduler.ShouldExpand(len(events)) {
		raw, errs = p.fetchRegion(ctx, band.DisplayName)
		report.Errors = append(report.Errors, errs...)

		events = append(events, p.process(ctx, raw, seenURLs)...)
		events = normalize.DedupeEventsByTitle(events)
	}

	sortEvents(events)

	report.Events = events
	report.Display = jitter.DisplayLocations(events)
	report.Duration = time.Since(started)

	p.markSeen(events)
	p.metrics.AddEventsEmitted(len(events))
	p.metrics.RecordRun(report.Duration)

	logger.Info("pipeline run finished",
		"band", band.DisplayName,
		"events", len(events),
		"expanded", report.Expanded,
		"errors", len(report.Errors),
		"duration", report.Duration.Round(time.Millisecond))

	return report
}

// fetchCountries queries every provider for every country in parallel.
// Each goroutine writes only its own slot; merging happens after Wait, so
// no locks are needed.
func (p *Pipeline) fetchCountries(ctx context.Context, countries []string) ([]model.RawSearchResult, []model.SourceError) {
	type slot struct {
		results []model.RawSearchResult
		err     *model.SourceError
	}

	slots := make([]slot, len(p.providers)*len(countries))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for pi, provider := range p.providers {
		for ci, country := range countries {
			provider, country := provider, country
			idx := pi*len(countries) + ci

			g.Go(func() error {
				var results []model.RawSearchResult
				err := retry.WithRetry(ctx, p.retryCfg, func() error {
					var ferr error
					results, ferr = provider.FetchCountry(ctx, country, p.maxPerQuery)
					return ferr
				})
				if err != nil {
					logger.Warn("source fetch failed", "provider", provider.Name(), "country", country, "error", err)
					slots[idx].err = &model.SourceError{
						Source: provider.Name() + "/" + country,
						Stage:  "fetch",
						Err:    err.Error(),
					}
					return nil
				}
				slots[idx].results = results
				return nil
			})
		}
	}
	g.Wait()

	var merged []model.RawSearchResult
	var errs []model.SourceError
	for _, s := range slots {
		merged = append(merged, s.results...)
		if s.err != nil {
			errs = append(errs, *s.err)
		}
	}

	p.metrics.AddResultsFetched(len(merged))
	return merged, errs
}

// RegionProvider is the optional wide-sweep side of a source. The
// aggregator client implements it; RSS feeds do not.
type RegionProvider interface {
	FetchRegion(ctx context.Context, region string, keywords []string, limit int) ([]model.RawSearchResult, error)
}

// regionKeywords drives the wide regional sweep.
var regionKeywords = []string{"conflict", "protest", "attack", "disaster", "crisis"}

func (p *Pipeline) fetchRegion(ctx context.Context, region string) ([]model.RawSearchResult, []model.SourceError) {
	var merged []model.RawSearchResult
	var errs []model.SourceError

	for _, provider := range p.providers {
		rp, ok := provider.(RegionProvider)
		if !ok {
			continue
		}

		var results []model.RawSearchResult
		err := retry.WithRetry(ctx, p.retryCfg, func() error {
			var ferr error
			results, ferr = rp.FetchRegion(ctx, region, regionKeywords, p.maxPerQuery)
			return ferr
		})
		if err != nil {
			logger.Warn("regional fetch failed", "provider", provider.Name(), "region", region, "error", err)
			errs = append(errs, model.SourceError{
				Source: provider.Name() + "/" + region,
				Stage:  "fetch",
				Err:    err.Error(),
			})
			continue
		}
		merged = append(merged, results...)
	}

	p.metrics.AddResultsFetched(len(merged))
	return merged, errs
}

// process turns raw results into finished events. seenURLs carries the
// normalized URLs already accepted this run, so a fallback round never
// re-includes a URL from the primary round.
func (p *Pipeline) process(ctx context.Context, raw []model.RawSearchResult, seenURLs map[string]struct{}) []model.ThreatEvent {
	filtered := p.normalizer.Filter(raw)

	// The dedup hash is fixed here, from the untranslated title, so the
	// same identity is probed now and stored after translation.
	type intake struct {
		res  model.RawSearchResult
		hash string
	}

	var fresh []intake
	for _, r := range filtered {
		key := normalize.NormalizeURL(r.URL)
		if _, dup := seenURLs[key]; dup {
			p.metrics.IncrementDuplicatesFiltered()
			continue
		}
		seenURLs[key] = struct{}{}

		hash := storage.EventHash(r.Title, r.URL)
		if p.seen != nil && p.seen.IsSeen(hash) {
			p.metrics.IncrementDuplicatesFiltered()
			continue
		}
		if !r.PublishedDate.IsZero() && time.Since(r.PublishedDate) > maxEventAge {
			continue
		}
		fresh = append(fresh, intake{res: r, hash: hash})
	}

	slots := make([]*model.ThreatEvent, len(fresh))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, it := range fresh {
		i, it := i, it
		g.Go(func() error {
			slots[i] = p.enrich(ctx, it.res, it.hash)
			return nil
		})
	}
	g.Wait()

	var events []model.ThreatEvent
	for _, e := range slots {
		if e != nil {
			events = append(events, *e)
		}
	}
	return events
}

// enrich runs one result through translation, classification and
// geolocation. Returns nil when no valid location could be resolved.
func (p *Pipeline) enrich(ctx context.Context, r model.RawSearchResult, hash string) *model.ThreatEvent {
	content := normalize.ExtractText(r.Content)

	tr := p.translator.Translate(ctx, r.Title, content)
	if tr.WasTranslated {
		p.metrics.IncrementTranslations()
	}

	outcome := p.classifier.Classify(ctx, tr.Title, tr.Content)
	if !outcome.Location.Valid() {
		p.metrics.IncrementDroppedNoLocation()
		logger.Debug("event dropped, no location", "title", tr.Title)
		return nil
	}

	timestamp := r.PublishedDate
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	return &model.ThreatEvent{
		ID:          uuid.NewString(),
		Title:       tr.Title,
		Summary:     buildSummary(tr.Content),
		Category:    outcome.Category,
		ThreatLevel: outcome.ThreatLevel,
		Location:    outcome.Location,
		Timestamp:   timestamp,
		Source:      sourceLabel(r),
		SourceURL:   r.URL,
		Entities:    classify.ExtractLocationCandidates(tr.Title + ". " + tr.Content),
		Keywords:    outcome.Keywords,
		RawContent:  tr.Content,
		SeenHash:    hash,
	}
}

func (p *Pipeline) markSeen(events []model.ThreatEvent) {
	if p.seen == nil {
		return
	}
	for _, e := range events {
		if err := p.seen.MarkSeen(e); err != nil {
			logger.Warn("mark seen failed", "id", e.ID, "error", err)
		}
	}
}

// sortEvents orders by threat severity first, most severe on top, then by
// timestamp with the newest first.
func sortEvents(events []model.ThreatEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		pi, pj := events[i].ThreatLevel.Priority(), events[j].ThreatLevel.Priority()
		if pi != pj {
			return pi < pj
		}
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

const summaryLimit = 220

// buildSummary takes the first sentences of the content up to the limit,
// falling back to a hard word-boundary cut.
func buildSummary(content string) string {
	if len(content) <= summaryLimit {
		return content
	}

	var out string
	for _, sentence := range splitSentences(content) {
		if out != "" && len(out)+len(sentence)+1 > summaryLimit {
			break
		}
		if out != "" {
			out += " "
		}
		out += sentence
	}
	if out != "" && len(out) <= summaryLimit {
		return out
	}

	cut := content[:summaryLimit]
	for i := len(cut) - 1; i > 0; i-- {
		if cut[i] == ' ' {
			return cut[:i] + "..."
		}
	}
	return cut + "..."
}

func splitSentences(s string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == '!' || s[i] == '?' {
			end := i + 1
			for end < len(s) && s[end] == ' ' {
				end++
			}
			sentence := s[start : i+1]
			if len(sentence) > 2 {
				sentences = append(sentences, sentence)
			}
			start = end
			i = end - 1
		}
	}
	if start < len(s) {
		sentences = append(sentences, s[start:])
	}
	return sentences
}

func sourceLabel(r model.RawSearchResult) string {
	if r.SourceLabel != "" {
		return r.SourceLabel
	}
	return normalize.Domain(r.URL)
}
