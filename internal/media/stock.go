package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultStockBaseURL = "https://api.pexels.com/v1/search"

// StockPhoto is one fallback image plus attribution.
type StockPhoto struct {
	URL          string
	ThumbnailURL string
	Photographer string
}

// StockSource finds a single landscape photo for a search phrase.
type StockSource interface {
	SearchOne(ctx context.Context, query string) (*StockPhoto, error)
	IsConfigured() bool
}

// PexelsClient queries the Pexels search API. Optional: without an API key
// it reports unconfigured and the enricher skips the fallback entirely.
type PexelsClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewPexelsClient(apiKey string, httpClient *http.Client) *PexelsClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &PexelsClient{
		apiKey:  apiKey,
		baseURL: defaultStockBaseURL,
		http:    httpClient,
	}
}

func (c *PexelsClient) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

func (c *PexelsClient) SearchOne(ctx context.Context, query string) (*StockPhoto, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("stock photo source not configured")
	}

	params := url.Values{
		"query":       {query},
		"orientation": {"landscape"},
		"per_page":    {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock photo search: status %d", resp.StatusCode)
	}

	var out struct {
		Photos []struct {
			Photographer string `json:"photographer"`
			Src          struct {
				Landscape string `json:"landscape"`
				Medium    string `json:"medium"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("stock photo search: malformed response: %w", err)
	}
	if len(out.Photos) == 0 {
		return nil, fmt.Errorf("stock photo search: no result for %q", query)
	}

	p := out.Photos[0]
	return &StockPhoto{
		URL:          p.Src.Landscape,
		ThumbnailURL: p.Src.Medium,
		Photographer: p.Photographer,
	}, nil
}
