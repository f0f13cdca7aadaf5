package spacetraveling

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/views"
)

const (
	homePath    = "/"
	sitemapPath = "/sitemap.xml"
	feedPath    = "/feed.xml"
	morePath    = "/posts/more/"

	stateGenerated = "generated"
)

// moreHref is where the load-more control of a page with the given next
// cursor fetches from. No cursor, no control.
func moreHref(cursor string) string {
	if cursor == "" {
		return ""
	}
	return morePath + "?cursor=" + url.QueryEscape(cursor)
}

// postSlug extracts the slug from a post page path.
func postSlug(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/post/")
	if !ok {
		return "", false
	}
	escaped, ok := strings.CutSuffix(rest, "/")
	if !ok || escaped == "" || strings.Contains(escaped, "/") {
		return "", false
	}
	slug, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	return slug, true
}

// generate produces the page for path from the content repository.
func (a *App) generate(ctx context.Context, path string) (Page, error) {
	switch path {
	case homePath:
		page, err := listing.Initial(ctx, a.Content)
		if err != nil {
			return Page{}, err
		}
		return a.homePage(ctx, page)
	case sitemapPath, feedPath:
		all, err := listing.Drain(ctx, a.Content)
		if err != nil {
			return Page{}, err
		}
		var body []byte
		if path == feedPath {
			body, err = a.feedXML(all.Results)
		} else {
			body, err = a.sitemapXML(all.Results)
		}
		if err != nil {
			return Page{}, err
		}
		return a.newPage(path, stateGenerated, body), nil
	}

	slug, ok := postSlug(path)
	if !ok {
		return Page{}, fmt.Errorf("%s: %w", path, ErrPageNotFound)
	}
	post, err := a.Resolver.Resolve(ctx, slug)
	if err != nil {
		return Page{}, err
	}
	return a.postPage(ctx, post)
}

func (a *App) homePage(ctx context.Context, page listing.PostPagination) (Page, error) {
	body, err := renderBytes(ctx, a.Views.Home(page, moreHref(page.NextPage)))
	if err != nil {
		return Page{}, err
	}
	return a.newPage(homePath, stateGenerated, body), nil
}

func (a *App) postPage(ctx context.Context, post detail.Post) (Page, error) {
	a.fillBanner(ctx, &post)
	body, err := renderBytes(ctx, a.Views.Post(post, detail.ReadingTime(post)))
	if err != nil {
		return Page{}, err
	}
	return a.newPage(views.PostPath(post.UID), a.Resolver.State(post.UID).String(), body), nil
}

func (a *App) newPage(path, state string, body []byte) Page {
	now := a.now()
	return Page{
		Path:            path,
		State:           state,
		Body:            body,
		GeneratedAt:     now,
		RevalidateAfter: now.Add(a.Config.RevalidateInterval),
	}
}

// Prerender generates the home page, the feeds and the first posts. Posts
// beyond the first PrerenderCount are generated on first request.
func (a *App) Prerender(ctx context.Context) error {
	for _, path := range []string{homePath, sitemapPath, feedPath} {
		if _, err := a.Cache.Refresh(ctx, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	slugs, err := detail.Paths(ctx, a.Content, a.Config.PrerenderCount)
	if err != nil {
		return err
	}
	if err := a.Resolver.Prerender(ctx, slugs); err != nil {
		return err
	}
	for _, slug := range slugs {
		post, ok := a.Resolver.Post(slug)
		if !ok {
			continue
		}
		page, err := a.postPage(ctx, post)
		if err != nil {
			return fmt.Errorf("post %s: %w", slug, err)
		}
		if err := a.Cache.Put(page); err != nil {
			return err
		}
	}
	a.Echo.Logger.Infof("prerendered %d posts", len(slugs))
	return nil
}

// revalidatePath regenerates a single page on demand.
func (a *App) revalidatePath(ctx context.Context, path string) error {
	if slug, ok := postSlug(path); ok {
		// a slug remembered as missing gets a fresh lookup
		if a.Resolver.State(slug) == detail.NotFound {
			a.Resolver.Forget(slug)
		}
	} else if path != homePath && path != sitemapPath && path != feedPath {
		return fmt.Errorf("%s: %w", path, ErrPageNotFound)
	}
	_, err := a.Cache.Refresh(ctx, path)
	return err
}

// revalidateAll regenerates every held page and reports how many failed.
func (a *App) revalidateAll(ctx context.Context) (int, error) {
	pages, err := a.Cache.Pages()
	if err != nil {
		return 0, err
	}
	failed := 0
	for _, p := range pages {
		if err := a.revalidatePath(ctx, p.Path); err != nil {
			a.Echo.Logger.Warnf("revalidate %s: %v", p.Path, err)
			failed++
		}
	}
	return failed, nil
}
