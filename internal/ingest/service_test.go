package ingest

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"wire-sync/internal/article"
	"wire-sync/internal/taxonomy"
	"wire-sync/internal/wire"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Exists(ctx context.Context, source, originalID string) (bool, error) {
	args := m.Called(ctx, source, originalID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) Insert(ctx context.Context, a *article.Article) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

type mockWireClient struct {
	mock.Mock
}

func (m *mockWireClient) Search(ctx context.Context, p wire.SearchParams) ([]wire.Item, int, error) {
	args := m.Called(ctx, p)
	items, _ := args.Get(0).([]wire.Item)
	return items, args.Int(1), args.Error(2)
}

func (m *mockWireClient) Document(ctx context.Context, id, docType string) (*wire.Document, error) {
	args := m.Called(ctx, id, docType)
	doc, _ := args.Get(0).(*wire.Document)
	return doc, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishArticleIngested(ctx context.Context, a *article.Article) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// wireOnlyEnricher avoids pulling the media package's strategies into the
// orchestrator tests.
type wireOnlyEnricher struct{}

func (wireOnlyEnricher) Enrich(_ context.Context, doc *wire.Document, _ string) ([]article.Image, []article.Video) {
	images := make([]article.Image, 0, len(doc.Photos))
	for _, p := range doc.Photos {
		images = append(images, article.Image{URL: p.URL, Provenance: article.ProvenanceWire})
	}
	return images, nil
}

type noopLimiter struct{}

func (noopLimiter) Wait(context.Context) error { return nil }

type fakeTicker struct {
	ch chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

type ServiceSuite struct {
	suite.Suite

	repo      *mockRepo
	client    *mockWireClient
	publisher *mockPublisher

	logBuf *bytes.Buffer
	logger *log.Logger

	svc *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.repo = &mockRepo{}
	s.client = &mockWireClient{}
	s.publisher = &mockPublisher{}

	s.logBuf = &bytes.Buffer{}
	s.logger = log.New(s.logBuf, "", 0)

	s.svc = s.newService(Options{Source: "newswire", Concurrency: 1})
}

func (s *ServiceSuite) newService(opts Options) *Service {
	mapper, err := taxonomy.Load("")
	s.Require().NoError(err)

	return NewService(s.repo, s.client, mapper, wireOnlyEnricher{}, noopLimiter{}, s.publisher, opts, s.logger)
}

func textItem(id string) wire.Item {
	return wire.Item{ID: id, ContentType: wire.TypeText, Category: "pol", Priority: "4"}
}

func textDoc(title string) *wire.Document {
	return &wire.Document{Title: title, Body: "body text for " + title}
}

// TestRun_MixedOutcomes covers the canonical three-item scenario: one
// duplicate, one failed fetch, one fresh save.
func (s *ServiceSuite) TestRun_MixedOutcomes() {
	items := []wire.Item{textItem("a"), textItem("b"), textItem("c")}

	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return(items, 3, nil).
		Once()

	// A: already stored
	s.client.On("Document", mock.Anything, "a", wire.TypeText).Return(textDoc("Article A"), nil).Once()
	s.repo.On("Exists", mock.Anything, "newswire", "a").Return(true, nil).Once()

	// B: permanent fetch failure
	s.client.
		On("Document", mock.Anything, "b", wire.TypeText).
		Return(nil, &wire.PermanentError{Op: "document", Err: errors.New("status 404")}).
		Once()

	// C: fresh item persists
	s.client.On("Document", mock.Anything, "c", wire.TypeText).Return(textDoc("Article C"), nil).Once()
	s.repo.On("Exists", mock.Anything, "newswire", "c").Return(false, nil).Once()
	s.repo.On("Insert", mock.Anything, mock.AnythingOfType("*article.Article")).Return(nil).Once()
	s.publisher.On("PublishArticleIngested", mock.Anything, mock.AnythingOfType("*article.Article")).Return(nil).Once()

	rep := s.svc.Run(context.Background())

	s.Equal(3, rep.Total)
	s.Equal(1, rep.Saved)
	s.Equal(1, rep.Skipped)
	s.Equal(1, rep.Errors)
	s.Equal(rep.Total, rep.Saved+rep.Skipped+rep.Errors)
	s.Len(rep.Items, 3)

	s.client.AssertExpectations(s.T())
	s.repo.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
}

// TestRun_CategoryFailureIsolated ensures a failing category never aborts
// its siblings.
func (s *ServiceSuite) TestRun_CategoryFailureIsolated() {
	s.svc = s.newService(Options{Source: "newswire", Categories: []string{"pol", "eco"}, Concurrency: 1})

	polParams := mock.MatchedBy(func(p wire.SearchParams) bool {
		return len(p.Categories) == 1 && p.Categories[0] == "pol"
	})
	ecoParams := mock.MatchedBy(func(p wire.SearchParams) bool {
		return len(p.Categories) == 1 && p.Categories[0] == "eco"
	})

	s.client.
		On("Search", mock.Anything, polParams).
		Return(nil, 0, &wire.PermanentError{Op: "search", Err: errors.New("status 400")}).
		Once()
	s.client.
		On("Search", mock.Anything, ecoParams).
		Return([]wire.Item{textItem("y1")}, 1, nil).
		Once()

	s.client.On("Document", mock.Anything, "y1", wire.TypeText).Return(textDoc("Economy"), nil).Once()
	s.repo.On("Exists", mock.Anything, "newswire", "y1").Return(false, nil).Once()
	s.repo.On("Insert", mock.Anything, mock.AnythingOfType("*article.Article")).Return(nil).Once()
	s.publisher.On("PublishArticleIngested", mock.Anything, mock.Anything).Return(nil).Once()

	rep := s.svc.Run(context.Background())

	s.Equal(1, rep.Total)
	s.Equal(1, rep.Saved)

	s.Require().Contains(rep.Categories, "pol")
	s.True(rep.Categories["pol"].Failed)
	s.Zero(rep.Categories["pol"].Total)

	s.Require().Contains(rep.Categories, "eco")
	s.False(rep.Categories["eco"].Failed)
	s.Equal(1, rep.Categories["eco"].Saved)

	s.client.AssertExpectations(s.T())
	s.repo.AssertExpectations(s.T())
}

// TestRun_TransientDocumentErrorRetried exercises the retry policy: two
// transient failures, then success.
func (s *ServiceSuite) TestRun_TransientDocumentErrorRetried() {
	s.svc = s.newService(Options{
		Source:        "newswire",
		Concurrency:   1,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	})

	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return([]wire.Item{textItem("a")}, 1, nil).
		Once()

	transient := &wire.TransientError{Op: "document", Err: errors.New("status 503")}
	s.client.On("Document", mock.Anything, "a", wire.TypeText).Return(nil, transient).Twice()
	s.client.On("Document", mock.Anything, "a", wire.TypeText).Return(textDoc("Article A"), nil).Once()

	s.repo.On("Exists", mock.Anything, "newswire", "a").Return(false, nil).Once()
	s.repo.On("Insert", mock.Anything, mock.AnythingOfType("*article.Article")).Return(nil).Once()
	s.publisher.On("PublishArticleIngested", mock.Anything, mock.Anything).Return(nil).Once()

	rep := s.svc.Run(context.Background())

	s.Equal(1, rep.Saved)
	s.client.AssertExpectations(s.T())
}

// TestRun_PermanentDocumentErrorNotRetried: a 4xx must fail the item on
// the first attempt.
func (s *ServiceSuite) TestRun_PermanentDocumentErrorNotRetried() {
	s.svc = s.newService(Options{
		Source:        "newswire",
		Concurrency:   1,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	})

	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return([]wire.Item{textItem("a")}, 1, nil).
		Once()
	s.client.
		On("Document", mock.Anything, "a", wire.TypeText).
		Return(nil, &wire.PermanentError{Op: "document", Err: errors.New("status 400")}).
		Once()

	rep := s.svc.Run(context.Background())

	s.Equal(1, rep.Errors)
	s.client.AssertExpectations(s.T())
	s.client.AssertNumberOfCalls(s.T(), "Document", 1)
}

// TestRun_InsertConflictCountsAsSkip: losing the write race to a
// concurrent run is a skip, not an error.
func (s *ServiceSuite) TestRun_InsertConflictCountsAsSkip() {
	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return([]wire.Item{textItem("a")}, 1, nil).
		Once()
	s.client.On("Document", mock.Anything, "a", wire.TypeText).Return(textDoc("Article A"), nil).Once()

	s.repo.On("Exists", mock.Anything, "newswire", "a").Return(false, nil).Once()
	s.repo.On("Insert", mock.Anything, mock.AnythingOfType("*article.Article")).Return(article.ErrDuplicate).Once()

	rep := s.svc.Run(context.Background())

	s.Equal(1, rep.Skipped)
	s.Zero(rep.Errors)
	s.repo.AssertExpectations(s.T())
	s.publisher.AssertNotCalled(s.T(), "PublishArticleIngested", mock.Anything, mock.Anything)
}

// TestRun_PublishFailureDoesNotFailItem: events are best effort.
func (s *ServiceSuite) TestRun_PublishFailureDoesNotFailItem() {
	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return([]wire.Item{textItem("a")}, 1, nil).
		Once()
	s.client.On("Document", mock.Anything, "a", wire.TypeText).Return(textDoc("Article A"), nil).Once()
	s.repo.On("Exists", mock.Anything, "newswire", "a").Return(false, nil).Once()
	s.repo.On("Insert", mock.Anything, mock.AnythingOfType("*article.Article")).Return(nil).Once()
	s.publisher.
		On("PublishArticleIngested", mock.Anything, mock.Anything).
		Return(errors.New("broker down")).
		Once()

	rep := s.svc.Run(context.Background())

	s.Equal(1, rep.Saved)
	s.Contains(s.logBuf.String(), "publish failed")
}

// TestRun_CancelledContextStillReportsPartially: a cancelled run skips the
// remaining categories but still returns a consistent report.
func (s *ServiceSuite) TestRun_CancelledContextStillReportsPartially() {
	s.svc = s.newService(Options{Source: "newswire", Categories: []string{"pol", "eco"}, Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())

	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return([]wire.Item{textItem("a")}, 1, nil).
		Once()
	s.client.
		On("Document", mock.Anything, "a", wire.TypeText).
		Run(func(mock.Arguments) { cancel() }).
		Return(textDoc("Article A"), nil).
		Once()
	s.repo.On("Exists", mock.Anything, "newswire", "a").Return(false, nil).Once()
	s.repo.On("Insert", mock.Anything, mock.AnythingOfType("*article.Article")).Return(nil).Once()
	s.publisher.On("PublishArticleIngested", mock.Anything, mock.Anything).Return(nil).Once()

	rep := s.svc.Run(ctx)

	// Only the first category's search happened; the in-flight item still
	// finished cleanly.
	s.client.AssertNumberOfCalls(s.T(), "Search", 1)
	s.Equal(1, rep.Total)
	s.Equal(rep.Total, rep.Saved+rep.Skipped+rep.Errors)
	s.False(rep.FinishedAt.IsZero())
}

// TestRun_SetsLastReport exposes the latest run to the report endpoint.
func (s *ServiceSuite) TestRun_SetsLastReport() {
	s.Nil(s.svc.LastReport())

	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return(nil, 0, nil).
		Once()

	rep := s.svc.Run(context.Background())
	s.Same(rep, s.svc.LastReport())
}

// TestStartPolling_StopsAfterMaxPolls drives the poller with a fake ticker.
func (s *ServiceSuite) TestStartPolling_StopsAfterMaxPolls() {
	maxPolls := 2

	s.svc = s.newService(Options{Source: "newswire", Concurrency: 1, MaxPolls: maxPolls})

	tickCh := make(chan time.Time)
	s.svc.newTicker = func(time.Duration) ticker {
		return &fakeTicker{ch: tickCh}
	}

	var wg sync.WaitGroup
	wg.Add(maxPolls)

	s.client.
		On("Search", mock.Anything, mock.AnythingOfType("wire.SearchParams")).
		Return(nil, 0, nil).
		Run(func(mock.Arguments) {
			wg.Done()
		}).
		Times(maxPolls)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.svc.StartPolling(ctx, time.Second)
		close(done)
	}()

	tickCh <- time.Now()
	tickCh <- time.Now()
	wg.Wait()

	// A third tick trips the max-polls guard and stops the loop.
	tickCh <- time.Now()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("poller did not stop after max polls")
	}

	s.client.AssertExpectations(s.T())
	s.Contains(s.logBuf.String(), "poller stopping after 2 polls")
}
