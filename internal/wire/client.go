package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const dateFormat = "20060102"

// Client talks to the wire proxy endpoint. It performs no retries itself;
// retry and backoff are the caller's responsibility.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
	}
}

type searchRequest struct {
	Action string       `json:"action"`
	Params searchParams `json:"params"`
}

type searchParams struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	FilterCategory string `json:"filter_category,omitempty"`
	FilterType     string `json:"filter_type,omitempty"`
	FilterLanguage string `json:"filter_language,omitempty"`
	Limit          int    `json:"limit"`
}

type searchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Result []Item `json:"result"`
		Total  int    `json:"total"`
	} `json:"data"`
}

type documentRequest struct {
	Action string `json:"action"`
	NewsID string `json:"newsId"`
	Type   string `json:"type"`
	Format string `json:"format"`
}

type documentResponse struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Details *Document `json:"details"`
}

// Search returns the item stubs matching params plus the total reported by
// the service.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]Item, int, error) {
	req := searchRequest{
		Action: "search",
		Params: searchParams{
			StartDate:      p.Start.Format(dateFormat),
			EndDate:        p.End.Format(dateFormat),
			FilterCategory: strings.Join(p.Categories, ","),
			FilterType:     p.ContentType,
			FilterLanguage: p.Language,
			Limit:          p.Limit,
		},
	}

	var out searchResponse
	if err := c.post(ctx, "search", req, &out); err != nil {
		return nil, 0, err
	}
	if !out.Success {
		return nil, 0, &PermanentError{Op: "search", Err: fmt.Errorf("service rejected request: %s", out.Error)}
	}
	return out.Data.Result, out.Data.Total, nil
}

// Document fetches the full body for one item. docType selects the wire
// format requested from the service (text vs media).
func (c *Client) Document(ctx context.Context, id, docType string) (*Document, error) {
	req := documentRequest{
		Action: "document",
		NewsID: id,
		Type:   docType,
		Format: "json",
	}

	var out documentResponse
	if err := c.post(ctx, "document", req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &PermanentError{Op: "document", Err: fmt.Errorf("service rejected request: %s", out.Error)}
	}
	if out.Details == nil {
		return nil, &PermanentError{Op: "document", Err: fmt.Errorf("empty document for %s", id)}
	}
	return out.Details, nil
}

func (c *Client) post(ctx context.Context, op string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &PermanentError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return &PermanentError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts, DNS and connection failures are all retryable.
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return &TransientError{Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &PermanentError{Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &PermanentError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}
