// Package spacetraveling serves a blog whose posts live in a headless
// content repository. Pages are generated ahead of time, held in SQLite,
// and regenerated when older than the revalidation interval; posts that were
// not generated ahead of time are resolved on first request behind a
// loading placeholder.
//
// Users may provide their own templ components via the ViewFuncs struct;
// any left nil fall back to the views package.
package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

// ViewFuncs holds the templ components the App calls when rendering pages.
type ViewFuncs struct {
	Home           func(page listing.PostPagination, moreHref string) templ.Component
	PostList       func(posts []listing.Post, moreHref string) templ.Component
	Post           func(post detail.Post, readingTime int) templ.Component
	PostArticle    func(post detail.Post, readingTime int) templ.Component
	Fallback       func(slug string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(rows []views.PageRow, message string, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// DefaultViews returns the stock components of the views package.
func DefaultViews(site views.SiteConfig) ViewFuncs {
	return ViewFuncs{
		Home: func(page listing.PostPagination, moreHref string) templ.Component {
			return views.Home(site, page, moreHref)
		},
		PostList: func(posts []listing.Post, moreHref string) templ.Component {
			return views.PostList(site, posts, moreHref)
		},
		Post: func(post detail.Post, readingTime int) templ.Component {
			return views.Post(site, post, readingTime)
		},
		PostArticle: func(post detail.Post, readingTime int) templ.Component {
			return views.PostArticle(site, post, readingTime)
		},
		Fallback: func(slug string) templ.Component {
			return views.Fallback(site, slug)
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return views.AdminLogin(site, showError, csrfToken)
		},
		AdminDashboard: func(rows []views.PageRow, message string, csrfToken string) templ.Component {
			return views.AdminDashboard(site, rows, message, csrfToken)
		},
		NotFound:    func() templ.Component { return views.NotFound(site) },
		ServerError: func() templ.Component { return views.ServerError(site) },
	}
}

func (v ViewFuncs) withDefaults(site views.SiteConfig) ViewFuncs {
	d := DefaultViews(site)
	if v.Home == nil {
		v.Home = d.Home
	}
	if v.PostList == nil {
		v.PostList = d.PostList
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.PostArticle == nil {
		v.PostArticle = d.PostArticle
	}
	if v.Fallback == nil {
		v.Fallback = d.Fallback
	}
	if v.AdminLogin == nil {
		v.AdminLogin = d.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = d.AdminDashboard
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// App is the central spacetraveling application. It wires together the
// content client, page store, cache, handlers, middleware and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Content  *prismic.Client
	Resolver *detail.Resolver
	Store    *PageStore
	Cache    *PageCache
	Views    ViewFuncs

	site         views.SiteConfig
	httpClient   *http.Client
	probe        *BannerProbe
	loginLimiter *LoginLimiter
	scheduler    *Scheduler
	customRoutes []func(*App)
	staticDir    string
	now          func() time.Time
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
		now:       time.Now,
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetPrefix("spacetraveling")

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// initContent builds everything that talks to the content repository. It
// is shared by the server and the static export.
func (a *App) initContent() error {
	if a.Content != nil {
		return nil
	}
	if a.Config.PrismicEndpoint == "" {
		return errors.New("spacetraveling: PrismicEndpoint is required")
	}
	site, err := a.Config.View()
	if err != nil {
		return fmt.Errorf("spacetraveling: %w", err)
	}
	a.site = site
	a.Views = a.Views.withDefaults(site)

	hc := a.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: a.Config.httpTimeout()}
	}
	client, err := prismic.New(prismic.Config{
		Endpoint:    a.Config.PrismicEndpoint,
		AccessToken: a.Config.PrismicAccessToken,
	}, prismic.WithHTTPClient(hc))
	if err != nil {
		return fmt.Errorf("spacetraveling: %w", err)
	}
	a.Content = client
	a.Resolver = detail.NewResolver(client)
	a.probe = NewBannerProbe(hc)
	return nil
}

// Setup initializes the content client, page store, cache, middleware and
// routes, then generates the home page and the first posts. It does not
// listen; Start does.
func (a *App) Setup(ctx context.Context) error {
	if a.Config.AdminPassword == "" {
		return errors.New("spacetraveling: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("spacetraveling: SessionSecret is required")
	}
	if err := a.initContent(); err != nil {
		return err
	}

	store, err := NewPageStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("spacetraveling: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPageCache(store, a.generate, a.Echo.Logger)
	a.Cache.now = a.now

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	sched, err := NewScheduler(a.Cache, a.Config.RevalidateInterval, a.Echo.Logger)
	if err != nil {
		return fmt.Errorf("spacetraveling: init scheduler: %w", err)
	}
	a.scheduler = sched

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Prerender(ctx); err != nil {
		return fmt.Errorf("spacetraveling: prerender: %w", err)
	}
	return nil
}

// Start runs Setup, starts the revalidation sweep and serves until ctx is
// done.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	a.scheduler.Start()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Echo.Shutdown(shutdownCtx); err != nil {
			a.Echo.Logger.Errorf("shutdown: %v", err)
		}
	}()

	a.Echo.Logger.Infof("listening on %s", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded page script, served ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/site.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/post/:slug/", a.handlePost)
	e.GET("/posts/more/", a.handleLoadMore)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/revalidate/", a.handleAdminRevalidate)
}

// Close stops background work and releases resources. Call this when the
// app is shutting down.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Cache != nil {
		a.Cache.Wait()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
