package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"threatmap/internal/model"
)

// Client queries an Open-Meteo-shaped geocoding API:
//
//	GET {base}/v1/search?name=<location>&count=1
//	=> {"results":[{"latitude":..,"longitude":..,"name":"..","country":".."}]}
//
// The base URL is configurable so deployments can point at any compatible
// gazetteer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
		Country   string  `json:"country"`
	} `json:"results"`
}

func (c *Client) Lookup(ctx context.Context, name string) (*model.GeoLocation, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request: status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("geocode request: decode: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, nil // no match is not an error
	}

	r := parsed.Results[0]
	return &model.GeoLocation{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		PlaceName: r.Name,
		Country:   r.Country,
	}, nil
}
