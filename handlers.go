package spacetraveling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

func (a *App) handleHome(c echo.Context) error {
	page, err := a.Cache.Get(c.Request().Context(), homePath)
	if err != nil {
		return err
	}
	return servePage(c, echo.MIMETextHTMLCharsetUTF8, page)
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	if c.QueryParam("partial") == views.PartialPost {
		return a.handlePostPartial(c, slug)
	}

	path := views.PostPath(slug)
	if page, ok := a.Cache.Peek(path); ok {
		return servePage(c, echo.MIMETextHTMLCharsetUTF8, page)
	}

	switch a.Resolver.Begin(slug) {
	case detail.NotFound:
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	case detail.FallbackPending:
		c.Response().Header().Set("Cache-Control", "no-store")
		return Render(c, a.Views.Fallback(slug))
	}

	// resolved earlier but no page held any more
	page, err := a.Cache.Refresh(c.Request().Context(), path)
	if err != nil {
		return err
	}
	return servePage(c, echo.MIMETextHTMLCharsetUTF8, page)
}

// handlePostPartial resolves a slug and answers with the bare article. The
// fallback placeholder calls it; the full page is stored on the way.
func (a *App) handlePostPartial(c echo.Context, slug string) error {
	ctx := c.Request().Context()
	post, ok := a.Resolver.Post(slug)
	if !ok {
		var err error
		if post, err = a.Resolver.Resolve(ctx, slug); err != nil {
			return err
		}
		page, err := a.postPage(ctx, post)
		if err != nil {
			return err
		}
		if err := a.Cache.Put(page); err != nil {
			c.Logger().Errorf("store %s: %v", page.Path, err)
		}
	}
	a.fillBanner(ctx, &post)
	c.Response().Header().Set("Cache-Control", "no-store")
	return Render(c, a.Views.PostArticle(post, detail.ReadingTime(post)))
}

func (a *App) handleLoadMore(c echo.Context) error {
	cursor := c.QueryParam("cursor")
	if cursor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "cursor is required")
	}
	page, err := listing.Page(c.Request().Context(), a.Content, cursor)
	if err != nil {
		if errors.Is(err, prismic.ErrForeignCursor) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
		}
		return err
	}
	return Render(c, a.Views.PostList(page.Results, moreHref(page.NextPage)))
}

func (a *App) handleSitemap(c echo.Context) error {
	page, err := a.Cache.Get(c.Request().Context(), sitemapPath)
	if err != nil {
		return err
	}
	return servePage(c, "application/xml; charset=utf-8", page)
}

func (a *App) handleFeed(c echo.Context) error {
	page, err := a.Cache.Get(c.Request().Context(), feedPath)
	if err != nil {
		return err
	}
	return servePage(c, "application/rss+xml; charset=utf-8", page)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, a.robotsTxt())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, prismic.ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
