package article

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the local taxonomy. External category codes always map into
// one of these; the raw code is preserved separately in OriginalCategory.
type Category string

const (
	CategoryGeneral       Category = "general"
	CategoryPolitics      Category = "politics"
	CategoryEconomy       Category = "economy"
	CategorySociety       Category = "society"
	CategoryWorld         Category = "world"
	CategoryCulture       Category = "culture"
	CategorySports        Category = "sports"
	CategoryTechnology    Category = "technology"
	CategoryHealth        Category = "health"
	CategoryEntertainment Category = "entertainment"
)

// DefaultCategory is assigned when the external code is unknown or missing.
const DefaultCategory = CategoryGeneral

type Priority string

const (
	PriorityFlash     Priority = "flash"
	PriorityUrgent    Priority = "urgent"
	PriorityImportant Priority = "important"
	PriorityRoutine   Priority = "routine"
	PrioritySpecial   Priority = "special"
	PriorityArchive   Priority = "archive"
)

// DefaultPriority is assigned when the external code is unknown or missing.
const DefaultPriority = PriorityRoutine

// Provenance records where an image came from.
type Provenance string

const (
	ProvenanceWire  Provenance = "wire"
	ProvenanceStock Provenance = "stock"
)

const StatusPublished = "published"

type Image struct {
	URL          string     `bson:"url" json:"url"`
	ThumbnailURL string     `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	Caption      string     `bson:"caption,omitempty" json:"caption,omitempty"`
	Photographer string     `bson:"photographer,omitempty" json:"photographer,omitempty"`
	Provenance   Provenance `bson:"provenance" json:"provenance"`
}

type Video struct {
	URL          string `bson:"url" json:"url"`
	ThumbnailURL string `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	Caption      string `bson:"caption,omitempty" json:"caption,omitempty"`
}

type Counters struct {
	Views    int64 `bson:"views" json:"views"`
	Likes    int64 `bson:"likes" json:"likes"`
	Shares   int64 `bson:"shares" json:"shares"`
	Comments int64 `bson:"comments" json:"comments"`
}

// Article is the canonical, persisted representation of an ingested wire
// article. (source, originalId) uniquely identifies a record. The pipeline
// inserts once and never updates; edits belong to the editorial layer.
type Article struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title            string             `bson:"title" json:"title"`
	Content          string             `bson:"content" json:"content"`
	Summary          string             `bson:"summary" json:"summary"`
	Category         Category           `bson:"category" json:"category"`
	OriginalCategory string             `bson:"originalCategory" json:"originalCategory"`
	Priority         Priority           `bson:"priority" json:"priority"`
	Tags             []string           `bson:"tags" json:"tags"`
	Images           []Image            `bson:"images" json:"images"`
	Videos           []Video            `bson:"videos" json:"videos"`
	Source           string             `bson:"source" json:"source"`
	OriginalID       string             `bson:"originalId" json:"originalId"`
	Author           string             `bson:"author,omitempty" json:"author,omitempty"`
	PublishedAt      time.Time          `bson:"publishedAt" json:"publishedAt"`
	Slug             string             `bson:"slug" json:"slug"`
	Status           string             `bson:"status" json:"status"`
	Breaking         bool               `bson:"breaking" json:"breaking"`
	Urgent           bool               `bson:"urgent" json:"urgent"`
	Featured         bool               `bson:"featured" json:"featured"`
	Counters         Counters           `bson:"counters" json:"counters"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	CrawledAt        time.Time          `bson:"crawledAt" json:"crawledAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
