// Package prismic is a minimal client for a Prismic-style content
// repository API (v2). Every call is a direct passthrough to the remote
// service: there is no retry and no caching.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxResponseSize = 8 << 20

// Config holds the connection settings for a repository.
type Config struct {
	Endpoint    string        // API root, e.g. https://repo.cdn.prismic.io/api/v2
	AccessToken string        // optional for public repositories
	HTTPTimeout time.Duration // 0 means no timeout
}

// QueryOptions controls projection and paging of a search.
type QueryOptions struct {
	Fetch     []string // field allow-list, e.g. "posts.title"
	PageSize  int
	Page      int
	Orderings string // e.g. "[document.first_publication_date desc]"
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client talks to one content repository.
type Client struct {
	endpoint *url.URL
	token    string
	http     *http.Client
}

// New validates cfg and returns a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("prismic: endpoint is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("prismic: invalid endpoint %q", cfg.Endpoint)
	}
	c := &Client{
		endpoint: u,
		token:    cfg.AccessToken,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the API root the client was configured with.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

type apiInfo struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

// Ref resolves the current master ref of the repository.
func (c *Client) Ref(ctx context.Context) (string, error) {
	u := *c.endpoint
	u.RawQuery = c.withToken(url.Values{}).Encode()
	var info apiInfo
	if err := c.get(ctx, u.String(), &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef && r.Ref != "" {
			return r.Ref, nil
		}
	}
	return "", malformed("no master ref")
}

// Query searches the repository with the given predicates.
func (c *Client) Query(ctx context.Context, preds []Predicate, opts QueryOptions) (*Response, error) {
	ref, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("ref", ref)
	if len(preds) > 0 {
		q.Set("q", encodeQuery(preds))
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Orderings != "" {
		q.Set("orderings", opts.Orderings)
	}
	u := c.endpoint.JoinPath("documents", "search")
	u.RawQuery = c.withToken(q).Encode()
	return c.search(ctx, u.String())
}

// GetByUID returns the single document of docType with the given uid.
// It fails with ErrNotFound when the repository has no such document.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	opts.Page = 0
	resp, err := c.Query(ctx, []Predicate{At("my."+docType+".uid", uid)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%s %q: %w", docType, uid, ErrNotFound)
	}
	doc := resp.Results[0]
	if doc.Type != docType || doc.UID != uid {
		return nil, malformed("asked for %s %q, got %s %q", docType, uid, doc.Type, doc.UID)
	}
	return &doc, nil
}

// FetchPage follows a next_page cursor returned by a previous query.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	u, err := url.Parse(cursor)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("prismic: invalid cursor %q", cursor)
	}
	if !strings.EqualFold(u.Host, c.endpoint.Host) {
		return nil, fmt.Errorf("%w: %s", ErrForeignCursor, u.Host)
	}
	u.RawQuery = c.withToken(u.Query()).Encode()
	return c.search(ctx, u.String())
}

func (c *Client) search(ctx context.Context, rawURL string) (*Response, error) {
	var resp Response
	if err := c.get(ctx, rawURL, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) withToken(q url.Values) url.Values {
	if c.token != "" && q.Get("access_token") == "" {
		q.Set("access_token", c.token)
	}
	return q
}

func (c *Client) get(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return &RequestError{URL: redact(rawURL), Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &RequestError{
			URL:        redact(rawURL),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		}
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseSize)).Decode(v); err != nil {
		return malformed("decode %s: %v", redact(rawURL), err)
	}
	return nil
}

// redact strips the access token so URLs can be logged.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
