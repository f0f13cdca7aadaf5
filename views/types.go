package views

import (
	"time"

	"golang.org/x/text/language"
)

// SiteConfig holds site-wide settings every view needs.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
	Location    *time.Location // publication dates are shown in this zone
	Locale      language.Tag   // month names
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// PageRow is one generated page as listed in the ops dashboard.
type PageRow struct {
	Path        string
	State       string
	GeneratedAt time.Time
	Stale       bool
}
