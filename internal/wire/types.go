package wire

import "time"

// Content types as reported by the wire service.
const (
	TypeText  = "text"
	TypePhoto = "photo"
	TypeVideo = "video"
)

// Item is one search result stub. Ephemeral; only the fields needed to
// drive the rest of the pipeline are carried.
type Item struct {
	ID          string `json:"news_id"`
	ContentType string `json:"content_type"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	GroupID     string `json:"group_id"`
	PublishTime string `json:"publish_time"`
}

// PublishedAt parses the item's publish timestamp. The proxy emits either
// RFC3339 or "2006-01-02 15:04:05"; anything else yields the zero time.
func (i Item) PublishedAt() time.Time {
	if i.PublishTime == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, i.PublishTime); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", i.PublishTime); err == nil {
		return t
	}
	return time.Time{}
}

type Photo struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Caption      string `json:"caption"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

type Video struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Caption      string `json:"caption"`
}

// Document is the fully fetched article body. Ephemeral, like Item.
type Document struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Summary   string   `json:"summary"`
	Photos    []Photo  `json:"photos"`
	Videos    []Video  `json:"videos"`
	Tags      []string `json:"tags"`
	Author    string   `json:"author"`
	Location  string   `json:"location"`
	SourceURL string   `json:"source_url"`
}

// SearchParams narrows a search call. Zero Start/End fall back to the
// caller's default lookback window.
type SearchParams struct {
	Start       time.Time
	End         time.Time
	Categories  []string
	ContentType string
	Language    string
	Limit       int
}
