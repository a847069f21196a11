// Package media turns a wire document's embedded media into article images
// and videos. Two strategies exist: WireFirst falls back to a stock photo
// for imageless text items, WireOnly never does.
package media

import (
	"context"
	"log"
	"strings"

	"wire-sync/internal/article"
	"wire-sync/internal/wire"
)

// Enricher extracts images and videos for one item. Implementations must
// never fail the item: a missing image is an empty list, not an error.
type Enricher interface {
	Enrich(ctx context.Context, doc *wire.Document, contentType string) ([]article.Image, []article.Video)
}

// WireOnly uses embedded wire media and nothing else.
type WireOnly struct{}

func (WireOnly) Enrich(_ context.Context, doc *wire.Document, _ string) ([]article.Image, []article.Video) {
	return wireImages(doc), wireVideos(doc)
}

// WireFirst prefers embedded wire media and, for text items without
// photos, asks the stock source for one landscape image.
type WireFirst struct {
	stock  StockSource
	logger *log.Logger
}

func NewWireFirst(stock StockSource, logger *log.Logger) *WireFirst {
	if logger == nil {
		logger = log.Default()
	}
	return &WireFirst{stock: stock, logger: logger}
}

func (e *WireFirst) Enrich(ctx context.Context, doc *wire.Document, contentType string) ([]article.Image, []article.Video) {
	images := wireImages(doc)
	videos := wireVideos(doc)

	if len(images) > 0 || contentType != wire.TypeText {
		return images, videos
	}
	if e.stock == nil || !e.stock.IsConfigured() {
		return images, videos
	}

	phrase := searchPhrase(doc.Title)
	if phrase == "" {
		return images, videos
	}

	photo, err := e.stock.SearchOne(ctx, phrase)
	if err != nil {
		// Missing images never fail an item.
		e.logger.Printf("media: stock fallback failed for %q: %v", phrase, err)
		return images, videos
	}

	images = append(images, article.Image{
		URL:          photo.URL,
		ThumbnailURL: photo.ThumbnailURL,
		Caption:      doc.Title,
		Photographer: photo.Photographer,
		Provenance:   article.ProvenanceStock,
	})
	return images, videos
}

func wireImages(doc *wire.Document) []article.Image {
	if len(doc.Photos) == 0 {
		return nil
	}
	images := make([]article.Image, 0, len(doc.Photos))
	for _, p := range doc.Photos {
		images = append(images, article.Image{
			URL:          p.URL,
			ThumbnailURL: p.ThumbnailURL,
			Caption:      p.Caption,
			Provenance:   article.ProvenanceWire,
		})
	}
	return images
}

func wireVideos(doc *wire.Document) []article.Video {
	if len(doc.Videos) == 0 {
		return nil
	}
	videos := make([]article.Video, 0, len(doc.Videos))
	for _, v := range doc.Videos {
		videos = append(videos, article.Video{
			URL:          v.URL,
			ThumbnailURL: v.ThumbnailURL,
			Caption:      v.Caption,
		})
	}
	return videos
}

// searchPhrase derives a short stock-photo query from the title: the first
// few significant words, skipping stopwords and short tokens.
func searchPhrase(title string) string {
	const maxWords = 4

	var words []string
	for _, tok := range strings.Fields(strings.ToLower(title)) {
		tok = strings.Trim(tok, `"'.,:;!?()[]`)
		if len([]rune(tok)) <= 3 {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		words = append(words, tok)
		if len(words) == maxWords {
			break
		}
	}

	if len(words) == 0 {
		// Nothing significant; fall back to the leading raw words.
		raw := strings.Fields(strings.ToLower(title))
		if len(raw) > maxWords {
			raw = raw[:maxWords]
		}
		return strings.Join(raw, " ")
	}
	return strings.Join(words, " ")
}

var stopwords = map[string]struct{}{
	"with": {}, "from": {}, "that": {}, "this": {}, "have": {}, "after": {},
	"says": {}, "said": {}, "over": {}, "into": {}, "amid": {}, "will": {},
	"been": {}, "were": {}, "their": {}, "about": {}, "more": {}, "than": {},
}
