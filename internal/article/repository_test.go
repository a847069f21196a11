package article_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"

	"wire-sync/internal/article"
	"wire-sync/internal/db"
)

type RepositorySuite struct {
	suite.Suite

	ctx    context.Context
	client *mongo.Client
	db     *mongo.Database

	repo article.Repository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx = context.Background()

	mongoURI := "mongodb://localhost:27017"
	mongoDBName := "test_newsdb"

	client, err := db.Connect(s.ctx, mongoURI)
	s.Require().NoError(err, "failed to connect to mongo")
	s.client = client
	s.db = client.Database(mongoDBName)
}

func (s *RepositorySuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
}

func (s *RepositorySuite) SetupTest() {
	// fresh DB (and indexes) before each test
	_ = s.db.Drop(s.ctx)

	repo, err := article.NewMongoRepository(s.db, nil)
	s.Require().NoError(err, "failed to create article repository")
	s.repo = repo
}

func sample(originalID string) *article.Article {
	return &article.Article{
		Title:            "Quake Hits Coastal Region",
		Content:          "A strong earthquake shook the coastal region on Friday.",
		Summary:          "Earthquake hits coast.",
		Category:         article.CategorySociety,
		OriginalCategory: "soc",
		Priority:         article.PriorityImportant,
		Source:           "newswire",
		OriginalID:       originalID,
		Slug:             "quake-hits-coastal-region",
		Counters:         article.Counters{Views: 99}, // must be zeroed on insert
	}
}

func (s *RepositorySuite) TestInsertThenExists() {
	exists, err := s.repo.Exists(s.ctx, "newswire", "n1")
	s.Require().NoError(err)
	s.False(exists)

	a := sample("n1")
	s.Require().NoError(s.repo.Insert(s.ctx, a))

	exists, err = s.repo.Exists(s.ctx, "newswire", "n1")
	s.Require().NoError(err)
	s.True(exists)

	// Same id from a different source is a different record.
	exists, err = s.repo.Exists(s.ctx, "othersource", "n1")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositorySuite) TestInsertFillsAuditFields() {
	a := sample("n1")
	s.Require().NoError(s.repo.Insert(s.ctx, a))

	var got article.Article
	err := s.db.Collection("articles").
		FindOne(s.ctx, map[string]any{"source": "newswire", "originalId": "n1"}).
		Decode(&got)
	s.Require().NoError(err)

	s.False(got.CreatedAt.IsZero())
	s.False(got.CrawledAt.IsZero())
	s.False(got.UpdatedAt.IsZero())
	s.Equal(article.StatusPublished, got.Status)
	s.Equal(article.Counters{}, got.Counters, "counters start at zero")
}

func (s *RepositorySuite) TestInsertDuplicateReturnsErrDuplicate() {
	s.Require().NoError(s.repo.Insert(s.ctx, sample("n1")))

	err := s.repo.Insert(s.ctx, sample("n1"))
	s.Require().Error(err)
	s.True(errors.Is(err, article.ErrDuplicate))

	count, err := s.db.Collection("articles").
		CountDocuments(s.ctx, map[string]any{"source": "newswire", "originalId": "n1"})
	s.Require().NoError(err)
	s.EqualValues(1, count, "unique index must prevent a second record")
}

func (s *RepositorySuite) TestInsertSameIDDifferentSource() {
	s.Require().NoError(s.repo.Insert(s.ctx, sample("n1")))

	other := sample("n1")
	other.Source = "othersource"
	s.Require().NoError(s.repo.Insert(s.ctx, other))
}
