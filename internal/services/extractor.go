package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"spider-indexer-scraper/internal/models"
)

// Selectors for the four extracted fields
const (
	titleSelector     = "title"
	heading1Selector  = "h1"
	heading2Selector  = "h2"
	paragraphSelector = "p"
)

// PageExtractor turns one parsed page into a PageRecord using fixed
// structural selectors. It holds no per-page state and is safe for reuse.
type PageExtractor struct {
	trimOffset int
}

// NewPageExtractor creates an extractor that drops trimOffset leading
// characters from the joined paragraph text
func NewPageExtractor(trimOffset int) *PageExtractor {
	if trimOffset < 0 {
		trimOffset = 0
	}
	return &PageExtractor{trimOffset: trimOffset}
}

// TrimOffset returns the configured paragraph prefix length
func (x *PageExtractor) TrimOffset() int {
	return x.trimOffset
}

// Extract builds a PageRecord from a parsed document. Title, first and second
// level headings are required; a page missing any of them fails with a
// *models.MissingElementError and no record is produced.
func (x *PageExtractor) Extract(doc *goquery.Selection) (models.PageRecord, error) {
	title, ok := firstText(doc, titleSelector)
	if !ok {
		return models.PageRecord{}, &models.MissingElementError{Element: titleSelector}
	}

	h1, ok := firstText(doc, heading1Selector)
	if !ok {
		return models.PageRecord{}, &models.MissingElementError{Element: heading1Selector}
	}

	h2, ok := firstText(doc, heading2Selector)
	if !ok {
		return models.PageRecord{}, &models.MissingElementError{Element: heading2Selector}
	}

	joined := strings.Join(textNodes(doc, paragraphSelector), " ")

	return models.PageRecord{
		Title:    title,
		Heading1: h1,
		Heading2: h2,
		URLText:  dropPrefix(strings.TrimSpace(joined), x.trimOffset),
	}, nil
}

// ExtractHTML parses raw HTML and extracts a record from it
func (x *PageExtractor) ExtractHTML(r io.Reader) (models.PageRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return models.PageRecord{}, fmt.Errorf("failed to parse html: %w", err)
	}
	return x.Extract(doc.Selection)
}

// firstText returns the first direct text node of the elements matching
// selector, and whether one exists
func firstText(doc *goquery.Selection, selector string) (string, bool) {
	texts := textNodes(doc, selector)
	if len(texts) == 0 {
		return "", false
	}
	return texts[0], true
}

// textNodes collects the direct child text nodes of every element matching
// selector, in document order. Text inside nested elements is not included.
func textNodes(doc *goquery.Selection, selector string) []string {
	var texts []string
	for _, n := range doc.Find(selector).Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				texts = append(texts, c.Data)
			}
		}
	}
	return texts
}

// dropPrefix removes the first n characters of s, returning "" when s is
// shorter than n
func dropPrefix(s string, n int) string {
	if n <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return ""
	}
	return string(runes[n:])
}
