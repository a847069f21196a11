// Package ingest drives the wire ingestion pipeline: search the wire
// service per category, then fetch, map, dedup-check, enrich, normalize
// and persist each item, accumulating a per-run report.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"wire-sync/internal/article"
	"wire-sync/internal/media"
	"wire-sync/internal/normalize"
	"wire-sync/internal/taxonomy"
	"wire-sync/internal/wire"
)

// hard per-poll limit, mirrors the polling loop's expectations
const pollTimeout = 25 * time.Minute

type WireClient interface {
	Search(ctx context.Context, p wire.SearchParams) ([]wire.Item, int, error)
	Document(ctx context.Context, id, docType string) (*wire.Document, error)
}

// Limiter is the token bucket awaited before every wire call. Satisfied by
// *rate.Limiter; tests inject a no-op.
type Limiter interface {
	Wait(ctx context.Context) error
}

type unlimited struct{}

func (unlimited) Wait(context.Context) error { return nil }

// Publisher announces persisted articles to downstream consumers.
// Optional; nil disables publishing.
type Publisher interface {
	PublishArticleIngested(ctx context.Context, a *article.Article) error
}

// ticker is an interface so we can swap out time.Ticker in tests.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type tickerFactory func(d time.Duration) ticker

type timeTicker struct {
	*time.Ticker
}

func (t *timeTicker) C() <-chan time.Time { return t.Ticker.C }
func (t *timeTicker) Stop()               { t.Ticker.Stop() }

// Options carries per-run tuning. Zero values get sensible defaults in
// NewService.
type Options struct {
	Source        string
	Categories    []string
	Language      string
	ContentType   string
	Lookback      time.Duration
	Limit         int
	Concurrency   int
	MaxPolls      int // -1 is unlimited
	RetryAttempts int
	RetryBackoff  time.Duration
}

type Service struct {
	repo      article.Repository
	client    WireClient
	mapper    *taxonomy.Mapper
	enricher  media.Enricher
	limiter   Limiter
	publisher Publisher
	opts      Options
	logger    *log.Logger
	newTicker tickerFactory

	lastReport atomic.Pointer[Report]
}

func NewService(repo article.Repository, client WireClient, mapper *taxonomy.Mapper, enricher media.Enricher, limiter Limiter, publisher Publisher, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Source == "" {
		opts.Source = "newswire"
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 24 * time.Hour
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 1
	}
	if opts.ContentType == "" {
		opts.ContentType = wire.TypeText
	}
	if limiter == nil {
		limiter = unlimited{}
	}

	return &Service{
		repo:      repo,
		client:    client,
		mapper:    mapper,
		enricher:  enricher,
		limiter:   limiter,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		newTicker: func(d time.Duration) ticker {
			return &timeTicker{time.NewTicker(d)}
		},
	}
}

// LastReport returns the most recent run's report, or nil before the
// first run completes.
func (s *Service) LastReport() *Report {
	return s.lastReport.Load()
}

// Run executes one pass over the configured categories and always returns
// a report, even after cancellation or per-category failures. No error
// escapes; every failure lands in the report instead.
func (s *Service) Run(ctx context.Context) *Report {
	rep := newReport()

	categories := s.opts.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	for _, cat := range categories {
		if ctx.Err() != nil {
			s.logger.Printf("ingest: run cancelled, returning partial report")
			break
		}
		s.runCategory(ctx, cat, rep)
	}

	rep.finish()
	s.lastReport.Store(rep)

	s.logger.Printf("ingest: run complete: total=%d saved=%d skipped=%d errors=%d",
		rep.Total, rep.Saved, rep.Skipped, rep.Errors)
	return rep
}

func (s *Service) runCategory(ctx context.Context, category string, rep *Report) {
	name := category
	if name == "" {
		name = "all"
	}

	end := time.Now().UTC()
	params := wire.SearchParams{
		Start:       end.Add(-s.opts.Lookback),
		End:         end,
		Language:    s.opts.Language,
		ContentType: s.opts.ContentType,
		Limit:       s.opts.Limit,
	}
	if category != "" {
		params.Categories = []string{category}
	}

	var items []wire.Item
	err := withRetry(ctx, s.opts.RetryAttempts, s.opts.RetryBackoff, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		items, _, err = s.client.Search(ctx, params)
		return err
	})
	if err != nil {
		// A failed category never aborts its siblings.
		s.logger.Printf("ingest: search failed for category %s: %v", name, err)
		rep.failCategory(name, err.Error())
		return
	}

	s.logger.Printf("ingest: category %s: %d items", name, len(items))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)

	for _, item := range items {
		// Cancellation stops issuing new fetches; in-flight items are
		// left to complete or fail on their own.
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rep.record(name, s.processItem(ctx, item))
			return nil
		})
	}
	_ = g.Wait()
}

// processItem runs one item through the full pipeline and returns its
// terminal outcome. Failures are isolated: an outcome, never a panic or an
// escaping error.
func (s *Service) processItem(ctx context.Context, item wire.Item) Outcome {
	var doc *wire.Document
	err := withRetry(ctx, s.opts.RetryAttempts, s.opts.RetryBackoff, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		doc, err = s.client.Document(ctx, item.ID, item.ContentType)
		return err
	})
	if err != nil {
		s.logger.Printf("ingest: document fetch failed for %s: %v", item.ID, err)
		return Outcome{ID: item.ID, State: StateErrored, Reason: fmt.Sprintf("document fetch: %v", err)}
	}

	cat := s.mapper.Category(item.Category)
	pri := s.mapper.Priority(item.Priority)

	exists, err := s.repo.Exists(ctx, s.opts.Source, item.ID)
	if err != nil {
		s.logger.Printf("ingest: dedup check failed for %s: %v", item.ID, err)
		return Outcome{ID: item.ID, Title: doc.Title, State: StateErrored, Reason: fmt.Sprintf("dedup check: %v", err)}
	}
	if exists {
		return Outcome{ID: item.ID, Title: doc.Title, State: StateSkipped, Reason: "already exists"}
	}

	images, videos := s.enricher.Enrich(ctx, doc, item.ContentType)

	a := normalize.Build(item, doc, s.opts.Source, cat, pri, images, videos)

	if err := s.repo.Insert(ctx, &a); err != nil {
		if errors.Is(err, article.ErrDuplicate) {
			// Lost the race against a concurrent run; the unique index is
			// the authority, count it as a skip.
			return Outcome{ID: item.ID, Title: doc.Title, State: StateSkipped, Reason: "already exists"}
		}
		s.logger.Printf("ingest: insert failed for %s: %v", item.ID, err)
		return Outcome{ID: item.ID, Title: doc.Title, State: StateErrored, Reason: fmt.Sprintf("persist: %v", err)}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishArticleIngested(ctx, &a); err != nil {
			// Publishing is best effort; the article is already saved.
			s.logger.Printf("ingest: publish failed for %s: %v", item.ID, err)
		}
	}

	return Outcome{ID: item.ID, Title: doc.Title, State: StateSaved}
}

// StartPolling runs passes on a fixed interval until the context is
// cancelled or the configured poll count is reached.
func (s *Service) StartPolling(ctx context.Context, interval time.Duration) {
	t := s.newTicker(interval)
	defer t.Stop()

	pollCount := 0

	s.logger.Printf("ingest: polling every %v...", interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("ingest: poller stopping — context cancelled")
			return

		case <-t.C():
			if s.opts.MaxPolls > 0 && pollCount >= s.opts.MaxPolls {
				s.logger.Printf("ingest: poller stopping after %d polls (max reached)", pollCount)
				return
			}

			pollCount++
			s.logger.Printf("ingest: poll #%d starting", pollCount)

			pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
			s.Run(pollCtx)
			cancel()
		}
	}
}
