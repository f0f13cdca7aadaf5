package spacetraveling

import (
	"fmt"
	"net/http"
	"time"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/views"
)

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string // Site name (default "spacetraveling")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path for generated pages (default "data/pages.db")

	PrismicEndpoint    string        // Required: repository API root
	PrismicAccessToken string        // Optional for public repositories
	HTTPTimeout        time.Duration // Outbound timeout (default 15s, negative disables)

	AdminPassword string // Required: ops panel password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	Timezone           string        // IANA zone publication dates are shown in (default "UTC")
	Locale             string        // Month names and UI labels (default "pt-BR")
	RevalidateInterval time.Duration // Page freshness window (default 30min)
	PrerenderCount     int           // Posts generated at startup (default 20)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.RevalidateInterval == 0 {
		c.RevalidateInterval = detail.RevalidateInterval
	}
	if c.PrerenderCount == 0 {
		c.PrerenderCount = detail.PathsPageSize
	}
}

func (c SiteConfig) httpTimeout() time.Duration {
	if c.HTTPTimeout < 0 {
		return 0
	}
	return c.HTTPTimeout
}

// View returns the settings the views need.
func (c SiteConfig) View() (views.SiteConfig, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return views.SiteConfig{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
		Location:    loc,
		Locale:      views.MatchLocale(c.Locale),
	}, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithHTTPClient replaces the HTTP client used for the content repository
// and the banner probe.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}
