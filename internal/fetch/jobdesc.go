package fetch

import (
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jonathan/resume-autofill/internal/dom"
)

// MinJobDescriptionLength is the text length a candidate must exceed.
const MinJobDescriptionLength = 50

// JobDescription is the posting text found next to an application form.
type JobDescription struct {
	Selector string
	Text     string
	Markdown string
}

// JobDescriptionExtractor pulls the posting out of a page.
type JobDescriptionExtractor struct {
	policy *bluemonday.Policy
}

// NewJobDescriptionExtractor builds an extractor whose sanitizer keeps only
// text structure: paragraphs, lists, headings, emphasis and plain links.
func NewJobDescriptionExtractor() *JobDescriptionExtractor {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "pre", "code",
		"strong", "em", "b", "i",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoReferrerOnLinks(true)
	return &JobDescriptionExtractor{policy: p}
}

// Extract tries the platform's selectors in order and returns the first
// element whose text is longer than MinJobDescriptionLength. Pages of unknown
// platforms that match no generic selector fall back to readability.
func (x *JobDescriptionExtractor) Extract(page *dom.Page, platform Platform) (*JobDescription, bool) {
	noise := strings.Join(NoiseSelectors(platform), ", ")
	for _, selector := range JobDescriptionSelectors(platform) {
		sel := page.Document().Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		clone := sel.Clone()
		clone.Find(noise).Remove()
		text := cleanWhitespace(clone.Text())
		if len(text) <= MinJobDescriptionLength {
			continue
		}
		inner, err := clone.Html()
		if err != nil {
			inner = ""
		}
		return &JobDescription{
			Selector: selector,
			Text:     text,
			Markdown: x.markdown(inner, text),
		}, true
	}

	if platform == PlatformUnknown {
		return x.readable(page)
	}
	return nil, false
}

func (x *JobDescriptionExtractor) readable(page *dom.Page) (*JobDescription, bool) {
	html, err := page.HTML()
	if err != nil {
		return nil, false
	}
	pageURL, _ := url.Parse(page.URL())
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, false
	}
	text := cleanWhitespace(article.TextContent)
	if len(text) <= MinJobDescriptionLength {
		return nil, false
	}
	return &JobDescription{
		Selector: "readability",
		Text:     text,
		Markdown: x.markdown(article.Content, text),
	}, true
}

func (x *JobDescriptionExtractor) markdown(rawHTML, fallback string) string {
	clean := x.policy.Sanitize(rawHTML)
	if strings.TrimSpace(clean) == "" {
		return fallback
	}
	md, err := htmltomarkdown.ConvertString(clean)
	if err != nil {
		return fallback
	}
	return strings.TrimSpace(md)
}

// FindForms returns the application-form containers present on the page.
func FindForms(page *dom.Page, platform Platform) []*dom.Element {
	selector := FormSelector(platform)
	if selector == "" {
		return nil
	}
	return page.Find(selector)
}
