// Package normalize builds the canonical article out of a wire document:
// tags, slug, summary, priority flags and the assembled record.
package normalize

import (
	"regexp"
	"sort"
	"strings"

	"wire-sync/internal/article"
	"wire-sync/internal/wire"
)

const (
	maxSlugLen   = 100
	maxTags      = 10
	summaryLen   = 200
	minTokenLen  = 4
	fallbackSlug = "untitled"
)

// Build assembles a NormalizedArticle from the pipeline's intermediate
// results. Persisted-only fields (id, audit timestamps, counters) are left
// for the repository to fill at write time.
func Build(item wire.Item, doc *wire.Document, source string, cat article.Category, pri article.Priority, images []article.Image, videos []article.Video) article.Article {
	return article.Article{
		Title:            doc.Title,
		Content:          doc.Body,
		Summary:          Summary(doc.Summary, doc.Body),
		Category:         cat,
		OriginalCategory: item.Category,
		Priority:         pri,
		Tags:             mergeTags(doc.Tags, Tags(doc.Title, doc.Body, maxTags), maxTags),
		Images:           images,
		Videos:           videos,
		Source:           source,
		OriginalID:       item.ID,
		Author:           doc.Author,
		PublishedAt:      item.PublishedAt(),
		Slug:             Slugify(doc.Title),
		Status:           article.StatusPublished,
		Breaking:         pri == article.PriorityFlash,
		Urgent:           pri == article.PriorityUrgent,
		Featured:         pri == article.PriorityFlash || pri == article.PriorityUrgent,
	}
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]+`)
	slugCollapse = regexp.MustCompile(`[\s-]+`)
	tokenStrip   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// Slugify turns a title into a stable URL slug: lowercase, [a-z0-9-] only,
// at most 100 characters. Deterministic and idempotent — slugifying a slug
// returns the same slug.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// Summary prefers the wire-provided summary, otherwise the leading ~200
// characters of content, cut at a word boundary.
func Summary(provided, content string) string {
	if s := strings.TrimSpace(provided); s != "" {
		return s
	}

	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= summaryLen {
		return content
	}

	cut := string(runes[:summaryLen])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}

// Tags extracts up to limit keywords from title and content: lowercase
// tokens, minimum length 4, stopwords removed, ranked by frequency with
// alphabetical tie-break.
func Tags(title, content string, limit int) []string {
	text := strings.ToLower(title + " " + content)
	text = tokenStrip.ReplaceAllString(text, " ")

	freq := make(map[string]int)
	for _, tok := range strings.Fields(text) {
		if len([]rune(tok)) < minTokenLen {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		freq[tok]++
	}
	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		word  string
		count int
	}
	pairs := make([]kv, 0, len(freq))
	for w, c := range freq {
		pairs = append(pairs, kv{word: w, count: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	if limit <= 0 || limit > len(pairs) {
		limit = len(pairs)
	}
	tags := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		tags = append(tags, pairs[i].word)
	}
	return tags
}

// mergeTags puts wire-provided tags ahead of extracted keywords, dropping
// duplicates and capping the result.
func mergeTags(provided, extracted []string, limit int) []string {
	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)

	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, t := range provided {
		if len(out) == limit {
			return out
		}
		add(t)
	}
	for _, t := range extracted {
		if len(out) == limit {
			return out
		}
		add(t)
	}
	return out
}

var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"will": {}, "says": {}, "said": {}, "were": {}, "they": {}, "their": {},
	"about": {}, "after": {}, "over": {}, "into": {}, "also": {}, "more": {},
	"than": {}, "when": {}, "which": {}, "would": {}, "could": {}, "there": {},
	"where": {}, "while": {}, "during": {}, "between": {}, "against": {},
	"because": {}, "other": {}, "some": {}, "such": {}, "only": {}, "year": {},
	"years": {}, "percent": {}, "according": {},
}
