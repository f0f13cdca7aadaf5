// Package listing builds the paginated post list: the initial page, the
// merge transition for subsequent pages, and a controller that serializes
// "load more" requests.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eringen/spacetraveling/prismic"
)

// DocumentType is the custom type listed on the home page.
const DocumentType = "posts"

// PageSize is the number of posts per page.
const PageSize = 5

var (
	// ErrNoMorePages is returned by LoadMore when the cursor is exhausted.
	ErrNoMorePages = errors.New("listing: no more pages")

	// ErrLoadInProgress is returned by LoadMore while another load is
	// outstanding.
	ErrLoadInProgress = errors.New("listing: load already in progress")
)

// Source is the subset of the content client the list page needs.
type Source interface {
	Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error)
	FetchPage(ctx context.Context, cursor string) (*prismic.Response, error)
}

// PostData is the projected subset of a post shown in the list.
type PostData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// Post is a post as shown in the list. UID is its identity.
type Post struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Data                 PostData   `json:"data"`
}

// PostPagination is one or more pages of posts plus the cursor to the next
// page. An empty NextPage means no further pages exist.
type PostPagination struct {
	NextPage string `json:"next_page"`
	Results  []Post `json:"results"`
}

// HasMore reports whether a "load more" action is available.
func (p PostPagination) HasMore() bool {
	return p.NextPage != ""
}

// Merge returns the state after page has been loaded: page's cursor
// replaces p's and page's results follow p's. p is not modified and no
// de-duplication happens.
func (p PostPagination) Merge(page PostPagination) PostPagination {
	results := make([]Post, 0, len(p.Results)+len(page.Results))
	results = append(results, p.Results...)
	results = append(results, page.Results...)
	return PostPagination{NextPage: page.NextPage, Results: results}
}

// FromResponse shapes a search response into the list projection.
func FromResponse(resp *prismic.Response) (PostPagination, error) {
	posts := make([]Post, 0, len(resp.Results))
	for i := range resp.Results {
		doc := &resp.Results[i]
		if doc.UID == "" {
			return PostPagination{}, fmt.Errorf("%w: document %s has no uid", prismic.ErrMalformedResponse, doc.ID)
		}
		var data PostData
		if err := doc.DecodeData(&data); err != nil {
			return PostPagination{}, err
		}
		posts = append(posts, Post{
			UID:                  doc.UID,
			FirstPublicationDate: doc.FirstPublished(),
			Data:                 data,
		})
	}
	return PostPagination{NextPage: resp.Next(), Results: posts}, nil
}

// Initial fetches the first page of posts.
func Initial(ctx context.Context, src Source) (PostPagination, error) {
	resp, err := src.Query(ctx,
		[]prismic.Predicate{prismic.At("document.type", DocumentType)},
		prismic.QueryOptions{
			Fetch:    []string{DocumentType + ".title", DocumentType + ".subtitle", DocumentType + ".author"},
			PageSize: PageSize,
		},
	)
	if err != nil {
		return PostPagination{}, err
	}
	return FromResponse(resp)
}

// Page fetches the page a cursor points at.
func Page(ctx context.Context, src Source, cursor string) (PostPagination, error) {
	if cursor == "" {
		return PostPagination{}, ErrNoMorePages
	}
	resp, err := src.FetchPage(ctx, cursor)
	if err != nil {
		return PostPagination{}, err
	}
	return FromResponse(resp)
}

// Drain fetches the first page and follows the cursor until exhaustion.
func Drain(ctx context.Context, src Source) (PostPagination, error) {
	state, err := Initial(ctx, src)
	if err != nil {
		return PostPagination{}, err
	}
	for state.HasMore() {
		page, err := Page(ctx, src, state.NextPage)
		if err != nil {
			return PostPagination{}, err
		}
		state = state.Merge(page)
	}
	return state, nil
}

// Controller owns one growing list. LoadMore calls are serialized: while
// one is outstanding, others fail with ErrLoadInProgress.
type Controller struct {
	src Source

	mu      sync.Mutex
	state   PostPagination
	loading bool
}

// NewController returns a controller starting from initial.
func NewController(src Source, initial PostPagination) *Controller {
	return &Controller{src: src, state: initial}
}

// State returns the current list.
func (c *Controller) State() PostPagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LoadMore fetches the next page and appends it. On error the state is
// left unchanged.
func (c *Controller) LoadMore(ctx context.Context) (PostPagination, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return PostPagination{}, ErrLoadInProgress
	}
	if !c.state.HasMore() {
		c.mu.Unlock()
		return PostPagination{}, ErrNoMorePages
	}
	cursor := c.state.NextPage
	c.loading = true
	c.mu.Unlock()

	page, err := Page(ctx, c.src, cursor)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		return PostPagination{}, err
	}
	c.state = c.state.Merge(page)
	return c.state, nil
}
