package search

import (
	"context"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"threatmap/internal/logger"
	"threatmap/internal/model"
)

// Feed is one RSS source with its country affiliation.
type Feed struct {
	URL     string `yaml:"url"`
	Name    string `yaml:"name"`
	Country string `yaml:"country"`
}

// FeedsConfig is the YAML config structure:
//
//	feeds:
//	  - url: https://example.com/rss
//	    name: Example Wire
//	    country: Ukraine
type FeedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the RSS feed list from a YAML file. A missing file is not
// an error: the RSS provider is optional.
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Feeds, nil
}

// RSSProvider serves country queries from a curated RSS feed list. Used as
// a secondary source alongside the aggregator, and as the only source when
// no aggregator is configured.
type RSSProvider struct {
	feeds   []Feed
	parser  *gofeed.Parser
	timeout time.Duration
}

func NewRSSProvider(feeds []Feed, timeout time.Duration) *RSSProvider {
	return &RSSProvider{
		feeds:   feeds,
		parser:  gofeed.NewParser(),
		timeout: timeout,
	}
}

func (p *RSSProvider) Name() string { return "rss" }

// FetchCountry parses every feed registered for the country. Feed failures
// are logged and skipped, never fatal.
func (p *RSSProvider) FetchCountry(ctx context.Context, country string, limit int) ([]model.RawSearchResult, error) {
	var results []model.RawSearchResult

	for _, feed := range p.feeds {
		if feed.Country != country {
			continue
		}

		feedCtx, cancel := context.WithTimeout(ctx, p.timeout)
		parsed, err := p.parser.ParseURLWithContext(feed.URL, feedCtx)
		cancel()
		if err != nil {
			logger.Warn("rss feed failed", "url", feed.URL, "error", err)
			continue
		}

		for _, item := range parsed.Items {
			if len(results) >= limit {
				return results, nil
			}
			r := model.RawSearchResult{
				Title:         item.Title,
				URL:           item.Link,
				Content:       item.Description,
				SourceLabel:   feed.Name,
				SourceCountry: country,
			}
			if r.SourceLabel == "" {
				r.SourceLabel = parsed.Title
			}
			if item.PublishedParsed != nil {
				r.PublishedDate = *item.PublishedParsed
			}
			results = append(results, r)
		}
	}

	return results, nil
}
