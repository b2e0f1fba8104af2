// Package fetch loads job-application pages: over plain HTTP, from disk, or
// through a headless browser, and knows the hiring platforms they belong to.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"github.com/jonathan/resume-autofill/internal/dom"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeAutofill/1.0)"

// MaxPageBytes caps the size of a fetched page.
const MaxPageBytes = 10 << 20

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during page loading.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Client    *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL retrieves a page. Redirects are followed and Result.URL is the final
// location, so platform detection sees the hiring site rather than a short
// link. The body is decoded to UTF-8 using the declared or sniffed charset.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if u, err := url.Parse(urlStr); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	var client *resty.Client
	if opts.Client != nil {
		client = resty.NewWithClient(opts.Client)
	} else {
		client = resty.New().SetTimeout(opts.Timeout)
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5").
		SetHeaders(opts.Headers).
		SetDoNotParseResponse(true).
		Get(urlStr)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	result := &Result{
		URL:         urlStr,
		ContentType: resp.Header().Get("Content-Type"),
		StatusCode:  resp.StatusCode(),
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		result.URL = raw.Request.URL.String()
	}

	decoded, err := charset.NewReader(io.LimitReader(body, MaxPageBytes), result.ContentType)
	if err != nil {
		return result, &Error{URL: urlStr, Message: "unsupported charset", Cause: err}
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return result, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	result.HTML = string(data)

	if resp.StatusCode() != http.StatusOK {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode())}
	}
	return result, nil
}

// Snapshot fetches a URL and parses it into a page.
func Snapshot(ctx context.Context, urlStr string, opts *Options) (*dom.Page, error) {
	result, err := URL(ctx, urlStr, opts)
	if err != nil {
		return nil, err
	}
	page, err := dom.ParseReader(strings.NewReader(result.HTML), result.URL)
	if err != nil {
		return nil, &Error{URL: result.URL, Message: "failed to parse page", Cause: err}
	}
	return page, nil
}

// File loads a saved page from disk. pageURL, when known, is used for
// platform detection.
func File(path, pageURL string) (*dom.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{URL: path, Message: "failed to open page", Cause: err}
	}
	defer func() { _ = f.Close() }()

	page, err := dom.ParseReader(io.LimitReader(f, MaxPageBytes), pageURL)
	if err != nil {
		return nil, &Error{URL: path, Message: "failed to parse page", Cause: err}
	}
	return page, nil
}

// cleanWhitespace trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
