// Package detail resolves single posts by slug, computes their reading
// time and tracks which slugs are pre-rendered or resolved on demand.
package detail

import (
	"context"
	"strings"
	"time"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

const (
	// DocumentType is the custom type of a post.
	DocumentType = "posts"

	// WordsPerMinute is the assumed reading speed.
	WordsPerMinute = 200

	// RevalidateInterval is how long a generated page stays fresh.
	RevalidateInterval = 30 * time.Minute

	// PathsPageSize is the number of posts pre-rendered at startup. Other
	// slugs are resolved on first request.
	PathsPageSize = 20
)

// Source is the subset of the content client the detail page needs.
type Source interface {
	Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error)
}

// Banner is the post's header image. Width and Height are 0 when unknown.
type Banner struct {
	URL    string
	Alt    string
	Width  int
	Height int
}

// Block is one section of a post: a heading and its rich-text body.
type Block struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// PostData is the content of a post.
type PostData struct {
	Title    string
	Subtitle string
	Banner   Banner
	Author   string
	Content  []Block
}

// Post is the full projection rendered on the detail page.
type Post struct {
	UID                  string
	FirstPublicationDate *time.Time
	Data                 PostData
}

type rawPost struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL        string               `json:"url"`
		Alt        string               `json:"alt"`
		Dimensions *richtext.Dimensions `json:"dimensions"`
	} `json:"banner"`
	Content []Block `json:"content"`
}

// FromDocument shapes a repository document into a Post.
func FromDocument(doc *prismic.Document) (Post, error) {
	var raw rawPost
	if err := doc.DecodeData(&raw); err != nil {
		return Post{}, err
	}
	banner := Banner{URL: raw.Banner.URL, Alt: raw.Banner.Alt}
	if d := raw.Banner.Dimensions; d != nil {
		banner.Width, banner.Height = d.Width, d.Height
	}
	return Post{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublished(),
		Data: PostData{
			Title:    raw.Title,
			Subtitle: raw.Subtitle,
			Banner:   banner,
			Author:   raw.Author,
			Content:  raw.Content,
		},
	}, nil
}

// Fetch resolves one post by slug. A missing slug yields an error wrapping
// prismic.ErrNotFound.
func Fetch(ctx context.Context, src Source, slug string) (Post, error) {
	doc, err := src.GetByUID(ctx, DocumentType, slug, prismic.QueryOptions{})
	if err != nil {
		return Post{}, err
	}
	return FromDocument(doc)
}

// Paths returns the slugs to pre-render: the uids of the first pageSize
// posts.
func Paths(ctx context.Context, src Source, pageSize int) ([]string, error) {
	resp, err := src.Query(ctx,
		[]prismic.Predicate{prismic.At("document.type", DocumentType)},
		prismic.QueryOptions{Fetch: []string{DocumentType + ".title"}, PageSize: pageSize},
	)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(resp.Results))
	for _, doc := range resp.Results {
		if doc.UID != "" {
			slugs = append(slugs, doc.UID)
		}
	}
	return slugs, nil
}

// WordCount counts whitespace-separated words in every heading and body.
func WordCount(post Post) int {
	total := 0
	for _, block := range post.Data.Content {
		total += len(strings.Fields(block.Heading))
		total += len(strings.Fields(richtext.AsText(block.Body, " ")))
	}
	return total
}

// ReadingTime returns the estimated reading time in whole minutes,
// rounded up.
func ReadingTime(post Post) int {
	return minutes(WordCount(post))
}

func minutes(words int) int {
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
