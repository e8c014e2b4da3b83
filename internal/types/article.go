package types

import (
	"net/url"
	"slices"
	"time"
)

// ArticleRecord is the persisted unit. Link is the sole deduplication key.
type ArticleRecord struct {
	Title         string    `bson:"title"          json:"title"`
	Link          string    `bson:"link"           json:"link"`
	Date          string    `bson:"date"           json:"date"`
	Content       string    `bson:"content"        json:"content"`
	Image         string    `bson:"image"          json:"image"`
	Source        string    `bson:"source"         json:"source"`
	ScrapedAt     time.Time `bson:"scraped_at"     json:"scraped_at"`
	KeywordsFound []string  `bson:"keywords_found" json:"keywords_found"`
}

// NewArticleRecord builds an ArticleRecord from an accepted candidate.
func NewArticleRecord(c CandidateRecord, keyword string, scrapedAt time.Time) ArticleRecord {
	rec := ArticleRecord{
		Title:     c.Title,
		Link:      c.Link,
		Date:      c.PublishedAt,
		Content:   c.Summary,
		Image:     c.ImageURL,
		Source:    string(c.Source),
		ScrapedAt: scrapedAt,
	}
	rec.AddKeyword(keyword)
	return rec
}

// AddKeyword records kw in KeywordsFound with set semantics.
// It returns true if kw was not already present.
func (a *ArticleRecord) AddKeyword(kw string) bool {
	if kw == "" || slices.Contains(a.KeywordsFound, kw) {
		return false
	}
	a.KeywordsFound = append(a.KeywordsFound, kw)
	return true
}

// IsAbsoluteHTTP reports whether raw parses as an absolute http or https URL with a host.
func IsAbsoluteHTTP(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
