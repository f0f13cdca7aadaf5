package spacetraveling

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"

	_ "golang.org/x/image/webp"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/richtext"
)

const maxBannerSize = 10 << 20 // 10MB

type dimensions struct {
	width, height int
}

// BannerProbe reads the pixel size of remote banner images so the <img>
// tag can reserve its box. Results are remembered per URL.
type BannerProbe struct {
	client *http.Client

	mu   sync.Mutex
	seen map[string]dimensions
}

// NewBannerProbe creates a BannerProbe fetching with hc.
func NewBannerProbe(hc *http.Client) *BannerProbe {
	return &BannerProbe{client: hc, seen: make(map[string]dimensions)}
}

// Dimensions decodes only the image header at url. PNG, JPEG, GIF and WebP
// are understood.
func (p *BannerProbe) Dimensions(ctx context.Context, url string) (width, height int, err error) {
	p.mu.Lock()
	d, ok := p.seen[url]
	p.mu.Unlock()
	if ok {
		return d.width, d.height, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("banner %s: status %d", url, resp.StatusCode)
	}
	cfg, format, err := image.DecodeConfig(io.LimitReader(resp.Body, maxBannerSize))
	if err != nil {
		return 0, 0, fmt.Errorf("decode banner %s: %w", url, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("banner %s: empty %s image", url, format)
	}

	p.mu.Lock()
	p.seen[url] = dimensions{cfg.Width, cfg.Height}
	p.mu.Unlock()
	return cfg.Width, cfg.Height, nil
}

// fillBanner completes missing banner dimensions. A failed probe only logs.
func (a *App) fillBanner(ctx context.Context, post *detail.Post) {
	b := &post.Data.Banner
	if b.Width > 0 && b.Height > 0 {
		return
	}
	if b.URL == "" || richtext.SafeURL(b.URL) == "" || a.probe == nil {
		return
	}
	w, h, err := a.probe.Dimensions(ctx, b.URL)
	if err != nil {
		a.Echo.Logger.Warnf("probe banner of %s: %v", post.UID, err)
		return
	}
	b.Width, b.Height = w, h
}
