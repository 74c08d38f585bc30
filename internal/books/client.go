package books

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Searcher runs a remote query and returns mapped records. An empty slice
// with a nil error means the remote reported zero matches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Book, error)
}

// Detailer looks up a single record by id.
type Detailer interface {
	Volume(ctx context.Context, id string) (Book, error)
}

// Ensure Client implements Searcher and Detailer at compile time.
var (
	_ Searcher = (*Client)(nil)
	_ Detailer = (*Client)(nil)
)

const (
	DefaultBaseURL   = "https://www.googleapis.com/books/v1/"
	defaultUserAgent = "shelf/0.1"
	maxBodyBytes     = 8 << 20
)

// Options configure a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration // zero leaves the transport default (no timeout)
	HTTP      *http.Client  // substitute transport, mainly for tests
}

// Client talks to the remote book-search API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	lookups   singleflight.Group
}

// NewClient builds a Client for the configured base endpoint.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: userAgent,
	}, nil
}

// BaseURL returns the normalized endpoint the client resolves paths against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Search issues one GET volumes?q= request and maps the response.
func (c *Client) Search(ctx context.Context, query string) ([]Book, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "volumes", RawQuery: "q=" + encodeQuery(query)}
	body, status, err := c.get(ctx, rel)
	if err != nil {
		return nil, wrapError("search", query, ErrNetwork, status, err)
	}
	books, err := MapResponse(body)
	if err != nil {
		return nil, wrapError("search", query, ErrDecode, status, err)
	}
	return books, nil
}

// Volume fetches a single record. Concurrent lookups of the same id share
// one request.
func (c *Client) Volume(ctx context.Context, id string) (Book, error) {
	if c == nil {
		return Book{}, fmt.Errorf("client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Book{}, wrapError("volume", id, ErrNotFound, 0, fmt.Errorf("volume id required"))
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return Book{}, wrapError("volume", id, ErrNotFound, 0, fmt.Errorf("invalid volume id"))
	}
	v, err, _ := c.lookups.Do(id, func() (any, error) {
		return c.fetchVolume(ctx, id)
	})
	if err != nil {
		return Book{}, err
	}
	return v.(Book).Clone(), nil
}

func (c *Client) fetchVolume(ctx context.Context, id string) (Book, error) {
	rel := &url.URL{Path: "volumes/" + id, RawPath: "volumes/" + url.PathEscape(id)}
	body, status, err := c.get(ctx, rel)
	if status == http.StatusNotFound {
		return Book{}, wrapError("volume", id, ErrNotFound, status, err)
	}
	if err != nil {
		return Book{}, wrapError("volume", id, ErrNetwork, status, err)
	}
	if err := validateVolumeBody(body); err != nil {
		return Book{}, wrapError("volume", id, ErrDecode, status, err)
	}
	var item volumeItem
	if err := json.Unmarshal(body, &item); err != nil {
		return Book{}, wrapError("volume", id, ErrDecode, status, fmt.Errorf("decode response: %w", err))
	}
	book, ok := mapItem(item)
	if !ok {
		return Book{}, wrapError("volume", id, ErrNotFound, status, fmt.Errorf("volume has no info payload"))
	}
	return book, nil
}

// get performs the request and returns the body with the HTTP status. Any
// non-2xx answer is an error.
func (c *Client) get(ctx context.Context, rel *url.URL) ([]byte, int, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// encodeQuery escapes a query for the q parameter while keeping a literal
// '+' as the remote's word separator.
func encodeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "%2B", "+")
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base_url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base_url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// IsCanceled reports whether err came from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
