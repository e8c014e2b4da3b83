// Package analytics derives the dashboard figures from stored articles:
// per-day and per-source counts, keyword distribution, content length
// buckets and word frequencies.
package analytics

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/srikandi-id/harvester/internal/types"
)

// Content length bucket labels. Upper bounds are inclusive.
const (
	BucketShort  = "Pendek (<200)"
	BucketMedium = "Sedang (200-500)"
	BucketLong   = "Panjang (>500)"
)

// Buckets lists the bucket labels in display order.
var Buckets = []string{BucketShort, BucketMedium, BucketLong}

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report summarizes a set of stored articles.
type Report struct {
	Total     int         `json:"total"`
	Undated   int         `json:"undated"`
	FirstDay  string      `json:"first_day,omitempty"`
	LastDay   string      `json:"last_day,omitempty"`
	PerDay    []Count     `json:"per_day"`
	PerSource []Count     `json:"per_source"`
	Keywords  []Count     `json:"keywords"`
	Lengths   []Count     `json:"lengths"`
	TopWords  []WordCount `json:"top_words"`
}

// Options tunes Build.
type Options struct {
	TopWords int
}

// Build computes a Report over records.
func Build(records []types.ArticleRecord, opts Options) *Report {
	if opts.TopWords <= 0 {
		opts.TopWords = 20
	}

	r := &Report{Total: len(records)}
	perDay := make(map[string]int)
	perSource := make(map[string]int)
	keywords := make(map[string]int)
	lengths := make(map[string]int)
	texts := make([]string, 0, len(records))

	var first, last time.Time
	for _, rec := range records {
		if day, ok := ParseDate(rec.Date); ok {
			perDay[day.Format(time.DateOnly)]++
			if first.IsZero() || day.Before(first) {
				first = day
			}
			if day.After(last) {
				last = day
			}
		} else {
			r.Undated++
		}

		perSource[rec.Source]++
		for _, kw := range rec.KeywordsFound {
			keywords[kw]++
		}
		lengths[LengthBucket(rec.Content)]++
		texts = append(texts, rec.Title+" "+rec.Content)
	}

	if !first.IsZero() {
		r.FirstDay = first.Format(time.DateOnly)
		r.LastDay = last.Format(time.DateOnly)
	}

	r.PerDay = sortedByLabel(perDay)
	r.PerSource = sortedByCount(perSource)
	r.Keywords = sortedByCount(keywords)
	r.Lengths = make([]Count, len(Buckets))
	for i, b := range Buckets {
		r.Lengths[i] = Count{Label: b, Count: lengths[b]}
	}
	r.TopWords = TopWords(texts, opts.TopWords)
	return r
}

// LengthBucket classifies content by its length in characters.
// The placeholder for a missing description counts as its literal text.
func LengthBucket(content string) string {
	n := utf8.RuneCountInString(content)
	switch {
	case n <= 200:
		return BucketShort
	case n <= 500:
		return BucketMedium
	default:
		return BucketLong
	}
}

func sortedByLabel(m map[string]int) []Count {
	out := toCounts(m)
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func sortedByCount(m map[string]int) []Count {
	out := toCounts(m)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func toCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Label: k, Count: v})
	}
	return out
}
