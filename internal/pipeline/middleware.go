package pipeline

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/srikandi-id/harvester/internal/types"
)

// DateLayout is the format used when a result carries no date of its own.
const DateLayout = "2006-01-02 15:04:05"

// SanitizeMiddleware collapses whitespace in the text fields of a
// candidate. With Markup set it first strips tags and decodes entities,
// for text that arrives as raw HTML rather than through goquery.
type SanitizeMiddleware struct {
	Markup  bool
	stripRe *regexp.Regexp
}

// NewSanitizeMiddleware creates a sanitizer for text goquery has already decoded.
func NewSanitizeMiddleware() *SanitizeMiddleware {
	return &SanitizeMiddleware{}
}

// NewMarkupSanitizeMiddleware creates a sanitizer for raw HTML snippets.
func NewMarkupSanitizeMiddleware() *SanitizeMiddleware {
	return &SanitizeMiddleware{
		Markup:  true,
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

// Name returns the middleware name.
func (m *SanitizeMiddleware) Name() string { return "sanitize" }

// Process cleans title, summary and date, and trims the URLs.
func (m *SanitizeMiddleware) Process(c *types.CandidateRecord) (*types.CandidateRecord, error) {
	c.Title = m.clean(c.Title)
	c.Summary = m.clean(c.Summary)
	c.PublishedAt = m.clean(c.PublishedAt)
	c.Link = strings.TrimSpace(c.Link)
	c.ImageURL = strings.TrimSpace(c.ImageURL)
	return c, nil
}

func (m *SanitizeMiddleware) clean(s string) string {
	if s == "" {
		return s
	}
	if m.Markup {
		s = m.stripRe.ReplaceAllString(s, "")
		s = html.UnescapeString(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// RequiredFieldsMiddleware drops candidates without a title or an
// absolute http(s) link.
type RequiredFieldsMiddleware struct{}

// Name returns the middleware name.
func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

// Process returns nil for a candidate missing a mandatory field.
func (m *RequiredFieldsMiddleware) Process(c *types.CandidateRecord) (*types.CandidateRecord, error) {
	if !c.HasMandatoryFields() {
		return nil, nil
	}
	return c, nil
}

// DefaultsMiddleware fills the optional fields with their placeholders.
// A missing date becomes the harvest time.
type DefaultsMiddleware struct {
	Now func() string
}

// Name returns the middleware name.
func (m *DefaultsMiddleware) Name() string { return "defaults" }

// Process fills empty summary, image and date fields.
func (m *DefaultsMiddleware) Process(c *types.CandidateRecord) (*types.CandidateRecord, error) {
	if c.Summary == "" {
		c.Summary = types.NoDescription
	}
	if c.ImageURL == "" {
		c.ImageURL = types.NoImage
	}
	if c.PublishedAt == "" {
		c.PublishedAt = m.now()
	}
	return c, nil
}

func (m *DefaultsMiddleware) now() string {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().Format(DateLayout)
}
