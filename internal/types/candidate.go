package types

import "strings"

// SourceName identifies the news site a record was harvested from.
type SourceName string

const (
	SourceDetik    SourceName = "Detik.com"
	SourceCNN      SourceName = "CNN Indonesia"
	SourceKompas   SourceName = "Kompas.com"
	SourceTribun   SourceName = "Tribunnews.com"
	SourceSuara    SourceName = "Suara.com"
	SourceNewsData SourceName = "NewsData.io"
)

// Placeholders stored when an optional field cannot be extracted.
const (
	NoDescription = "No description"
	NoImage       = "No image"
)

// CandidateRecord is an unvalidated article extracted from a single
// search-result element. It lives only until relevance and dedup checks.
type CandidateRecord struct {
	// Title is the headline text. Mandatory.
	Title string `json:"title"`

	// Link is the absolute http(s) URL of the article. Mandatory.
	Link string `json:"link"`

	// PublishedAt is the date exactly as the site renders it.
	PublishedAt string `json:"published_at"`

	// Summary is the teaser text, or NoDescription.
	Summary string `json:"summary"`

	// ImageURL is the thumbnail URL, or NoImage.
	ImageURL string `json:"image_url"`

	// Source is the site that produced this candidate.
	Source SourceName `json:"source"`
}

// SearchText returns the text a relevance check runs against:
// the title followed by the summary, space-joined.
func (c CandidateRecord) SearchText() string {
	return c.Title + " " + c.Summary
}

// HasMandatoryFields reports whether the candidate carries a non-empty
// title and an absolute http(s) link.
func (c CandidateRecord) HasMandatoryFields() bool {
	if strings.TrimSpace(c.Title) == "" {
		return false
	}
	return IsAbsoluteHTTP(c.Link)
}
