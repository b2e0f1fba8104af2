package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonathan/resume-autofill/internal/types"
)

// DefaultPDFName is used when the service does not name the file.
const DefaultPDFName = "resume.pdf"

// History returns the user's resume files, newest first.
func (c *Client) History(ctx context.Context, token string) ([]types.ResumeFile, error) {
	resp, err := c.call(ctx, http.MethodGet, EndpointHistory, EndpointHistory, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusError(EndpointHistory, resp, "Failed to fetch resume history")
	}
	h := gjson.GetBytes(resp.Body(), "history")
	if !h.IsArray() {
		return nil, nil
	}
	var files []types.ResumeFile
	if err := json.Unmarshal([]byte(h.Raw), &files); err != nil {
		return nil, &types.NetworkError{Endpoint: EndpointHistory, Message: "Invalid response from server", Cause: err}
	}
	return files, nil
}

// FileName derives the stored file name of a history entry: the last path
// segment of its storage path (or name) without any query string.
func FileName(f types.ResumeFile) string {
	p := f.S3Path
	if p == "" {
		p = f.ResumeName
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// Download is a presigned link to a resume file.
type Download struct {
	URL      string
	Filename string
}

// DownloadLink asks the service for a presigned URL for filename.
func (c *Client) DownloadLink(ctx context.Context, token, filename string) (*Download, error) {
	path := EndpointDownload + "/" + url.PathEscape(filename)
	resp, err := c.call(ctx, http.MethodGet, path, EndpointDownload, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusError(EndpointDownload, resp, "Failed to get download URL")
	}
	body := resp.Body()
	link := gjson.GetBytes(body, "downloadUrl").String()
	if link == "" {
		link = gjson.GetBytes(body, "download_url").String()
	}
	if link == "" {
		return nil, &types.NetworkError{Endpoint: EndpointDownload, Message: "No download URL returned"}
	}
	name := gjson.GetBytes(body, "filename").String()
	if name == "" {
		name = DefaultPDFName
	}
	return &Download{URL: link, Filename: name}, nil
}

// Fetch downloads a presigned file. The link carries its own credentials,
// so no auth token is sent.
func (c *Client) Fetch(ctx context.Context, d *Download) (*types.ResumePDF, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &types.NetworkError{Endpoint: d.URL, Message: "request cancelled", Cause: err}
	}
	resp, err := c.download.R().SetContext(ctx).Get(d.URL)
	if err != nil {
		return nil, &types.NetworkError{Endpoint: d.URL, Message: "Failed to download PDF", Cause: err}
	}
	if !resp.IsSuccess() {
		return nil, &types.NetworkError{Endpoint: d.URL, StatusCode: resp.StatusCode(), Message: "Failed to download PDF"}
	}
	data := resp.Body()
	if len(data) > MaxPDFBytes {
		return nil, &types.NetworkError{Endpoint: d.URL, Message: "resume file too large"}
	}
	return &types.ResumePDF{Filename: d.Filename, Data: data}, nil
}

// ResumePDF downloads the newest resume file in the user's history.
func (c *Client) ResumePDF(ctx context.Context, token string) (*types.ResumePDF, error) {
	files, err := c.History(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &types.DataAbsentError{Message: "No resume found in history"}
	}
	name := FileName(files[0])
	if name == "" {
		return nil, &types.DataAbsentError{Message: "No resume filename found"}
	}
	link, err := c.DownloadLink(ctx, token, name)
	if err != nil {
		return nil, err
	}
	pdf, err := c.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	c.logger.Info("downloaded resume", "filename", pdf.Filename, "bytes", len(pdf.Data))
	return pdf, nil
}
