package spacetraveling

import "time"

// Page is one generated document held by the page store and cache.
type Page struct {
	Path            string
	State           string // rendering state of the slug, for post pages
	Body            []byte
	GeneratedAt     time.Time
	RevalidateAfter time.Time
}

// Stale reports whether p should be regenerated at now.
func (p Page) Stale(now time.Time) bool {
	return !now.Before(p.RevalidateAfter)
}
