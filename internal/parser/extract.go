// Package parser holds the selector toolkit source adapters build on:
// ordered fallback chains of extractors, lazy-image handling, and link
// resolution.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls a single string value out of a result element.
// An empty string means "not found here, try the next one".
type Extractor func(el *goquery.Selection) string

// LazyImageAttrs are the attributes checked for an image URL, in order.
// Lazy loaders keep the real URL in a data-* attribute and a placeholder in src.
var LazyImageAttrs = []string{"data-src", "data-original", "data-lazy-src", "src"}

// First returns the first non-empty value produced by extractors.
func First(el *goquery.Selection, extractors ...Extractor) string {
	for _, ex := range extractors {
		if ex == nil {
			continue
		}
		if v := ex(el); v != "" {
			return v
		}
	}
	return ""
}

// FirstOr is First with a placeholder for when every extractor comes up empty.
func FirstOr(el *goquery.Selection, placeholder string, extractors ...Extractor) string {
	if v := First(el, extractors...); v != "" {
		return v
	}
	return placeholder
}

// Text extracts the whitespace-normalized text of the first element
// matching selector. An empty selector means the element itself.
func Text(selector string) Extractor {
	return func(el *goquery.Selection) string {
		return CleanText(find(el, selector).First().Text())
	}
}

// Attr extracts the first non-empty attribute among attrs on the first
// element matching selector.
func Attr(selector string, attrs ...string) Extractor {
	return func(el *goquery.Selection) string {
		target := find(el, selector).First()
		for _, a := range attrs {
			if v, ok := target.Attr(a); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
		return ""
	}
}

// Image extracts an image URL from the first <img> under selector,
// preferring lazy-load attributes over src. Inline data: URIs are ignored.
func Image(selector string) Extractor {
	return func(el *goquery.Selection) string {
		img := find(el, selector)
		if !img.Is("img") {
			img = img.Find("img")
		}
		img = img.First()
		for _, a := range LazyImageAttrs {
			v, ok := img.Attr(a)
			if !ok {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" || strings.HasPrefix(v, "data:") {
				continue
			}
			return v
		}
		return ""
	}
}

// AfterLast keeps the part of the wrapped value after the last sep,
// or the whole value when sep does not occur.
func AfterLast(sep string, ex Extractor) Extractor {
	return func(el *goquery.Selection) string {
		v := ex(el)
		if i := strings.LastIndex(v, sep); i >= 0 {
			v = strings.TrimSpace(v[i+len(sep):])
		}
		return v
	}
}

// FindContainers returns the elements matched by the first selector that
// matches anything, plus that selector.
func FindContainers(doc *goquery.Document, selectors ...string) (*goquery.Selection, string) {
	for _, s := range selectors {
		if found := doc.Find(s); found.Length() > 0 {
			return found, s
		}
	}
	return doc.Find("__none__"), ""
}

// CleanText collapses runs of whitespace and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func find(el *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return el
	}
	return el.Find(selector)
}
