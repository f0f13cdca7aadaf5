package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
)

// staticMoreHref is the load-more target of batch n in an exported site,
// where every batch is a pre-built fragment file.
func staticMoreHref(n int, more bool) string {
	if !more {
		return ""
	}
	return morePath + strconv.Itoa(n) + "/"
}

// Export writes the whole site as static files under dir: the home page,
// one fragment per load-more batch, every post, the sitemap, the feed, a
// 404 page and the static assets. It needs no page store.
func (a *App) Export(ctx context.Context, dir string) error {
	if err := a.initContent(); err != nil {
		return err
	}

	initial, err := listing.Initial(ctx, a.Content)
	if err != nil {
		return fmt.Errorf("home: %w", err)
	}
	body, err := renderBytes(ctx, a.Views.Home(initial, staticMoreHref(1, initial.HasMore())))
	if err != nil {
		return err
	}
	if err := writeExport(dir, "index.html", body); err != nil {
		return err
	}

	ctrl := listing.NewController(a.Content, initial)
	for n := 1; ; n++ {
		before := len(ctrl.State().Results)
		state, err := ctrl.LoadMore(ctx)
		if errors.Is(err, listing.ErrNoMorePages) {
			break
		}
		if err != nil {
			return fmt.Errorf("load more %d: %w", n, err)
		}
		body, err := renderBytes(ctx, a.Views.PostList(state.Results[before:], staticMoreHref(n+1, state.HasMore())))
		if err != nil {
			return err
		}
		if err := writeExport(dir, morePath+strconv.Itoa(n)+"/index.html", body); err != nil {
			return err
		}
	}

	all := ctrl.State().Results
	slugs := make([]string, 0, len(all))
	for _, p := range all {
		if !safeSlug(p.UID) {
			a.Echo.Logger.Warnf("export: skipping post with unusable uid %q", p.UID)
			continue
		}
		slugs = append(slugs, p.UID)
	}
	if err := a.Resolver.Prerender(ctx, slugs); err != nil {
		return err
	}
	for _, slug := range slugs {
		post, ok := a.Resolver.Post(slug)
		if !ok {
			continue
		}
		a.fillBanner(ctx, &post)
		body, err := renderBytes(ctx, a.Views.Post(post, detail.ReadingTime(post)))
		if err != nil {
			return err
		}
		if err := writeExport(dir, "post/"+slug+"/index.html", body); err != nil {
			return err
		}
	}

	sitemap, err := a.sitemapXML(all)
	if err != nil {
		return err
	}
	if err := writeExport(dir, "sitemap.xml", sitemap); err != nil {
		return err
	}
	feed, err := a.feedXML(all)
	if err != nil {
		return err
	}
	if err := writeExport(dir, "feed.xml", feed); err != nil {
		return err
	}
	if err := writeExport(dir, "robots.txt", a.robotsTxt()); err != nil {
		return err
	}
	notFound, err := renderBytes(ctx, a.Views.NotFound())
	if err != nil {
		return err
	}
	if err := writeExport(dir, "404.html", notFound); err != nil {
		return err
	}

	if err := a.exportAssets(dir); err != nil {
		return err
	}
	a.Echo.Logger.Infof("exported %d posts to %s", len(slugs), dir)
	return nil
}

func (a *App) exportAssets(dir string) error {
	script, err := fs.ReadFile(EmbeddedAssets, "embedded/site.js")
	if err != nil {
		return err
	}
	if err := writeExport(dir, "public/site.js", script); err != nil {
		return err
	}
	if _, err := os.Stat(a.staticDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fs.WalkDir(os.DirFS(a.staticDir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(filepath.Join(a.staticDir, path))
		if err != nil {
			return err
		}
		return writeExport(dir, "public/"+path, data)
	})
}

func safeSlug(slug string) bool {
	return slug != "" && slug != "." && slug != ".." && !strings.ContainsAny(slug, `/\`)
}

func writeExport(dir, rel string, data []byte) error {
	path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
