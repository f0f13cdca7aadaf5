package views

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/richtext"
)

// PartialPost is the query value that asks a post route for the bare
// article instead of a full page.
const PartialPost = "post"

// Home renders the post list. moreHref is where the load-more control
// fetches the next batch; an empty moreHref renders no control.
func Home(cfg SiteConfig, page listing.PostPagination, moreHref string) templ.Component {
	meta := PageMeta{Title: cfg.Name, URL: buildURL(cfg.URL), OGType: "website"}
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<main class="container"><div class="posts" id="posts">`)
		writePostItems(&buf, cfg, page.Results)
		buf.WriteString(`</div>`)
		writeLoadMore(&buf, cfg, moreHref)
		buf.WriteString(`</main>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
	return Layout(cfg, meta, WebsiteJsonLD(cfg), body)
}

// PostList renders one batch of list items followed by the next load-more
// control, if any. It is the response body of a load-more request.
func PostList(cfg SiteConfig, posts []listing.Post, moreHref string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		writePostItems(&buf, cfg, posts)
		writeLoadMore(&buf, cfg, moreHref)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writePostItems(buf *bytes.Buffer, cfg SiteConfig, posts []listing.Post) {
	for _, p := range posts {
		buf.WriteString(`<a class="post" data-post href="` + esc(PostPath(p.UID)) + `">`)
		buf.WriteString(`<h1>` + esc(p.Data.Title) + `</h1>`)
		if p.Data.Subtitle != "" {
			buf.WriteString(`<p>` + esc(p.Data.Subtitle) + `</p>`)
		}
		buf.WriteString(`<footer class="info">`)
		writeTime(buf, cfg, p)
		buf.WriteString(`<span class="author">` + esc(p.Data.Author) + `</span>`)
		buf.WriteString(`</footer></a>`)
	}
}

func writeTime(buf *bytes.Buffer, cfg SiteConfig, p listing.Post) {
	if p.FirstPublicationDate == nil {
		return
	}
	buf.WriteString(`<time datetime="` + esc(isoDate(p.FirstPublicationDate)) + `">`)
	buf.WriteString(esc(FormatDate(p.FirstPublicationDate, cfg.Location, cfg.Locale)))
	buf.WriteString(`</time>`)
}

func writeLoadMore(buf *bytes.Buffer, cfg SiteConfig, moreHref string) {
	if moreHref == "" {
		return
	}
	buf.WriteString(`<button type="button" class="load-more" data-load-more data-href="` + esc(moreHref) + `">`)
	buf.WriteString(esc(label(cfg.Locale, labelLoadMore)))
	buf.WriteString(`</button>`)
}

// Post renders a full post page.
func Post(cfg SiteConfig, post detail.Post, readingTime int) templ.Component {
	meta := PageMeta{
		Title:       post.Data.Title,
		Description: post.Data.Subtitle,
		URL:         PostURL(cfg, post.UID),
		OGType:      "article",
		Image:       bannerURL(post),
	}
	return Layout(cfg, meta, BlogPostingJsonLD(cfg, post), PostArticle(cfg, post, readingTime))
}

func bannerURL(post detail.Post) string {
	if richtext.SafeURL(post.Data.Banner.URL) == "" {
		return ""
	}
	return post.Data.Banner.URL
}

// PostArticle renders the banner and article of a post without the page
// shell. A fallback page swaps its placeholder for this markup.
func PostArticle(cfg SiteConfig, post detail.Post, readingTime int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<main class="post-page">`)
		if b := post.Data.Banner; richtext.SafeURL(b.URL) != "" {
			buf.WriteString(`<img class="banner" src="` + richtext.SafeURL(b.URL) + `" alt="` + esc(b.Alt) + `"`)
			if b.Width > 0 && b.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Width) + `" height="` + strconv.Itoa(b.Height) + `"`)
			}
			buf.WriteString(`>`)
		}
		buf.WriteString(`<article class="container"><h1>` + esc(post.Data.Title) + `</h1>`)
		buf.WriteString(`<div class="info">`)
		if post.FirstPublicationDate != nil {
			buf.WriteString(`<time datetime="` + esc(isoDate(post.FirstPublicationDate)) + `">`)
			buf.WriteString(esc(FormatDate(post.FirstPublicationDate, cfg.Location, cfg.Locale)))
			buf.WriteString(`</time>`)
		}
		buf.WriteString(`<span class="author">` + esc(post.Data.Author) + `</span>`)
		buf.WriteString(`<span class="reading-time">` + esc(ReadingTimeLabel(readingTime)) + `</span>`)
		buf.WriteString(`</div>`)
		for _, block := range post.Data.Content {
			buf.WriteString(`<section class="block"><h2>` + esc(block.Heading) + `</h2>`)
			buf.WriteString(`<div class="post-content">`)
			richtext.RenderHTML(&buf, block.Body)
			buf.WriteString(`</div></section>`)
		}
		buf.WriteString(`</article></main>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Fallback renders the placeholder served while a post that was not
// generated ahead of time is being resolved. The page script fetches the
// article from the same path and swaps it in.
func Fallback(cfg SiteConfig, slug string) templ.Component {
	meta := PageMeta{Title: cfg.Name, URL: PostURL(cfg, slug), OGType: "article"}
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		src := PostPath(slug) + "?partial=" + PartialPost
		buf.WriteString(`<main class="container fallback" data-fallback="` + esc(src) + `">`)
		buf.WriteString(`<p class="loading" role="status">` + esc(label(cfg.Locale, labelLoading)) + `</p>`)
		buf.WriteString(`</main>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
	return Layout(cfg, meta, "", body)
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return messagePage(cfg, label(cfg.Locale, labelNotFound))
}

// ServerError renders the page shown when content could not be fetched.
func ServerError(cfg SiteConfig) templ.Component {
	return messagePage(cfg, label(cfg.Locale, labelServerError))
}

func messagePage(cfg SiteConfig, msg string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<main class="container message"><h1>` + esc(msg) + `</h1>`)
		buf.WriteString(`<a href="/">` + esc(label(cfg.Locale, labelBackHome)) + `</a></main>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
	return Layout(cfg, PageMeta{Title: msg}, "", body)
}
