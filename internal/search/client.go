package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"threatmap/internal/model"
)

// defaultKeywords is the broad threat query used when fetching per-country
// news.
const defaultKeywords = "conflict OR protest OR attack OR disaster OR crisis"

// Client speaks the aggregator HTTP contract:
//
//	GET {base}/news?keyword&lang&country&max
//	GET {base}/local-sources?region&keywords&limit
//
// Both return {"articles":[{title, description, url, publishedAt,
// source:{name, country}}]}.
type Client struct {
	baseURL       string
	singleTimeout time.Duration
	regionTimeout time.Duration
	httpClient    *http.Client
}

func NewClient(baseURL string, singleTimeout, regionTimeout time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		singleTimeout: singleTimeout,
		regionTimeout: regionTimeout,
		httpClient:    &http.Client{},
	}
}

func (c *Client) Name() string { return "aggregator" }

type articlesResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchCountry queries /news restricted to one country.
func (c *Client) FetchCountry(ctx context.Context, country string, limit int) ([]model.RawSearchResult, error) {
	params := url.Values{}
	params.Set("keyword", defaultKeywords)
	params.Set("lang", "en")
	params.Set("country", country)
	params.Set("max", strconv.Itoa(limit))

	return c.fetch(ctx, "/news?"+params.Encode(), c.singleTimeout, country)
}

// FetchRegion queries /local-sources for a whole region; slower, so it gets
// the wider regional timeout.
func (c *Client) FetchRegion(ctx context.Context, region string, keywords []string, limit int) ([]model.RawSearchResult, error) {
	params := url.Values{}
	params.Set("region", region)
	params.Set("keywords", strings.Join(keywords, ","))
	params.Set("limit", strconv.Itoa(limit))

	return c.fetch(ctx, "/local-sources?"+params.Encode(), c.regionTimeout, "")
}

func (c *Client) fetch(ctx context.Context, path string, timeout time.Duration, country string) ([]model.RawSearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregator fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator fetch: status %d", resp.StatusCode)
	}

	var parsed articlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("aggregator fetch: decode: %w", err)
	}

	results := make([]model.RawSearchResult, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.URL == "" {
			continue
		}
		r := model.RawSearchResult{
			Title:         a.Title,
			URL:           a.URL,
			Content:       a.Description,
			SourceLabel:   a.Source.Name,
			SourceCountry: a.Source.Country,
		}
		if r.SourceCountry == "" {
			r.SourceCountry = country
		}
		if t := parseTime(a.PublishedAt); !t.IsZero() {
			r.PublishedDate = t
		}
		results = append(results, r)
	}
	return results, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
