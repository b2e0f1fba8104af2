// Package dom wraps a goquery snapshot of a third-party page and exposes the
// observable properties of its form controls: attributes, resolved label
// text, nearby block text and a unique CSS path for addressing the same node
// in a live browser.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fillableSelector matches every control the fill engine may write to.
const fillableSelector = "input, textarea, select"

// Page is a parsed snapshot of a document.
type Page struct {
	doc *goquery.Document
	url string
}

// Parse parses HTML into a Page.
func Parse(html string) (*Page, error) {
	return ParseReader(strings.NewReader(html), "")
}

// ParseReader parses HTML from r; pageURL is kept for platform detection.
func ParseReader(r io.Reader, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML", Cause: err}
	}
	return &Page{doc: doc, url: pageURL}, nil
}

// URL returns the address the snapshot was taken from, if known.
func (p *Page) URL() string { return p.url }

// Document exposes the underlying goquery document.
func (p *Page) Document() *goquery.Document { return p.doc }

// HTML renders the current state of the document.
func (p *Page) HTML() (string, error) {
	html, err := goquery.OuterHtml(p.doc.Selection)
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return html, nil
}

// Inputs returns every input, textarea and select in document order.
func (p *Page) Inputs() []*Element {
	return p.Find(fillableSelector)
}

// FileInputs returns every file input in document order.
func (p *Page) FileInputs() []*Element {
	var out []*Element
	for _, el := range p.Find("input") {
		if el.Type() == "file" {
			out = append(out, el)
		}
	}
	return out
}

// Find returns the elements matching selector in document order.
func (p *Page) Find(selector string) []*Element {
	var out []*Element
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s, page: p})
	})
	return out
}

// Exists reports whether anything matches selector.
func (p *Page) Exists(selector string) bool {
	return p.doc.Find(selector).Length() > 0
}

// Text returns the collapsed text of the first match for selector.
func (p *Page) Text(selector string) string {
	return collapse(p.doc.Find(selector).First().Text())
}

// labelFor finds the label whose for attribute names id.
func (p *Page) labelFor(id string) *goquery.Selection {
	return p.doc.Find("label[for]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("for")
		return v == id
	}).First()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
