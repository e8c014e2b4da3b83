package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// XPathText extracts the text of the first node matching expr, evaluated
// relative to the element. Used where CSS cannot express the fallback,
// e.g. "first heading of any level".
func XPathText(expr string) Extractor {
	return func(el *goquery.Selection) string {
		node := xpathOne(el, expr)
		if node == nil {
			return ""
		}
		return CleanText(htmlquery.InnerText(node))
	}
}

// XPathAttr extracts attr from the first node matching expr.
func XPathAttr(expr, attr string) Extractor {
	return func(el *goquery.Selection) string {
		node := xpathOne(el, expr)
		if node == nil {
			return ""
		}
		return strings.TrimSpace(htmlquery.SelectAttr(node, attr))
	}
}

func xpathOne(el *goquery.Selection, expr string) *html.Node {
	if el == nil || len(el.Nodes) == 0 {
		return nil
	}
	node, err := htmlquery.Query(el.Nodes[0], expr)
	if err != nil {
		return nil
	}
	return node
}
