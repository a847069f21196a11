package ingest

import (
	"sync"
	"time"
)

type State string

const (
	StateSaved   State = "saved"
	StateSkipped State = "skipped"
	StateErrored State = "errored"
)

// Outcome is the terminal result of one item's pipeline pass.
type Outcome struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	State    State  `json:"state"`
	Reason   string `json:"reason,omitempty"`
}

// CategoryReport is the per-category slice of a multi-category run. Failed
// marks a category whose search call itself failed; its items are zero.
type CategoryReport struct {
	Total         int    `json:"total"`
	Saved         int    `json:"saved"`
	Skipped       int    `json:"skipped"`
	Errors        int    `json:"errors"`
	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

// Report accumulates a run's outcomes. saved+skipped+errors == total holds
// at all times; record is safe for concurrent item workers.
type Report struct {
	mu sync.Mutex

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Total   int `json:"total"`
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`

	Items      []Outcome                  `json:"items"`
	Categories map[string]*CategoryReport `json:"categories,omitempty"`
}

func newReport() *Report {
	return &Report{
		StartedAt:  time.Now().UTC(),
		Categories: make(map[string]*CategoryReport),
	}
}

func (r *Report) record(category string, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.Category = category
	r.Items = append(r.Items, o)
	r.Total++

	c := r.category(category)
	c.Total++

	switch o.State {
	case StateSaved:
		r.Saved++
		c.Saved++
	case StateSkipped:
		r.Skipped++
		c.Skipped++
	case StateErrored:
		r.Errors++
		c.Errors++
	}
}

// failCategory marks a category whose search call failed outright.
func (r *Report) failCategory(category, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.category(category)
	c.Failed = true
	c.FailureReason = reason
}

func (r *Report) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
}

// category returns the per-category bucket, creating it on first use.
// Callers must hold r.mu.
func (r *Report) category(name string) *CategoryReport {
	c, ok := r.Categories[name]
	if !ok {
		c = &CategoryReport{}
		r.Categories[name] = c
	}
	return c
}
