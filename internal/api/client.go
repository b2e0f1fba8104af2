// Package api is the client for the remote resume service: login, resume
// data, resume-file history and presigned PDF downloads.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/jonathan/resume-autofill/internal/metrics"
	"github.com/jonathan/resume-autofill/internal/types"
)

// DefaultBaseURL is the production resume service.
const DefaultBaseURL = "https://hihired.org"

// Endpoints of the resume service.
const (
	EndpointLogin       = "/api/auth/login"
	EndpointGoogleLogin = "/api/auth/google"
	EndpointUserLoad    = "/api/user/load"
	EndpointHistory     = "/api/resume/history"
	EndpointDownload    = "/api/resume/download"
)

const (
	DefaultTimeout = 30 * time.Second
	// MaxPDFBytes bounds a downloaded resume.
	MaxPDFBytes = 20 * 1024 * 1024
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS limits requests per second to the service. Zero disables the limit.
	RPS   float64
	Burst int
	// HTTPClient overrides the transport used for service calls.
	HTTPClient *http.Client
	// DownloadClient fetches presigned file URLs. Defaults to a client that
	// refuses private and loopback addresses.
	DownloadClient *http.Client
	Recorder       metrics.Recorder
	Logger         *slog.Logger
}

// Client talks to the resume service.
type Client struct {
	rest     *resty.Client
	download *resty.Client
	limiter  *rate.Limiter
	recorder metrics.Recorder
	logger   *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rest *resty.Client
	if opts.HTTPClient != nil {
		rest = resty.NewWithClient(opts.HTTPClient)
	} else {
		rest = resty.New()
	}
	rest.SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	dl := opts.DownloadClient
	if dl == nil {
		dl = NewSafeDownloadClient(opts.Timeout)
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		rest:     rest,
		download: resty.NewWithClient(dl).SetTimeout(opts.Timeout),
		limiter:  rate.NewLimiter(limit, burst),
		recorder: metrics.OrNop(opts.Recorder),
		logger:   logger,
	}
}

// NewSafeDownloadClient returns an HTTP client restricted to public http and
// https hosts on standard ports.
func NewSafeDownloadClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(config).Client
}

// call issues one throttled request. label names the endpoint in metrics.
func (c *Client) call(ctx context.Context, method, path, label, token string, body any) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &types.NetworkError{Endpoint: label, Message: "request cancelled", Cause: err}
	}

	req := c.rest.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)
	c.recorder.RecordAPIRequest(label, elapsed)
	if err != nil {
		return nil, &types.NetworkError{Endpoint: label, Message: "request failed", Cause: err}
	}
	c.logger.Debug("api request", "method", method, "endpoint", label, "status", resp.StatusCode(), "duration", elapsed)
	return resp, nil
}

// statusError builds the error for a non-2xx response, preferring the
// server's own error text.
func statusError(label string, resp *resty.Response, fallback string) error {
	return &types.NetworkError{
		Endpoint:      label,
		StatusCode:    resp.StatusCode(),
		ServerMessage: serverMessage(resp.Body()),
		Message:       fallback,
	}
}

func serverMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// Response is the outcome of a proxied request.
type Response struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// Request proxies an arbitrary call to the service. Non-2xx responses are
// reported through Success rather than as an error.
func (c *Client) Request(ctx context.Context, method, endpoint, token string, body json.RawMessage) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}
	if endpoint == "" || endpoint[0] != '/' {
		return nil, &types.ValidationError{Field: "endpoint", Message: "must be a path starting with /"}
	}
	var payload any
	if len(body) > 0 {
		payload = body
	}
	resp, err := c.call(ctx, method, endpoint, endpoint, token, payload)
	if err != nil {
		return nil, err
	}
	data := json.RawMessage(resp.Body())
	if !json.Valid(data) {
		encoded, _ := json.Marshal(string(resp.Body()))
		data = encoded
	}
	return &Response{Success: resp.IsSuccess(), Status: resp.StatusCode(), Data: data}, nil
}
