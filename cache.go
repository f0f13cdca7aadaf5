package spacetraveling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/prismic"
)

// Generator produces the page for a path.
type Generator func(ctx context.Context, path string) (Page, error)

type regen struct {
	done chan struct{}
	page Page
	err  error
}

// PageCache is an in-memory front of the PageStore. A stale page is served
// once more while it is regenerated in the background, and at most one
// regeneration per path runs at a time.
type PageCache struct {
	mu    sync.RWMutex
	pages map[string]Page

	store    *PageStore
	generate Generator
	logger   echo.Logger
	now      func() time.Time

	regenMu sync.Mutex
	regens  map[string]*regen
	wg      sync.WaitGroup
}

// NewPageCache creates a PageCache backed by the given store.
func NewPageCache(s *PageStore, gen Generator, logger echo.Logger) *PageCache {
	return &PageCache{
		pages:    make(map[string]Page),
		store:    s,
		generate: gen,
		logger:   logger,
		now:      time.Now,
		regens:   make(map[string]*regen),
	}
}

// Lookup returns the page held for path without generating it.
func (c *PageCache) Lookup(path string) (Page, bool) {
	c.mu.RLock()
	p, ok := c.pages[path]
	c.mu.RUnlock()
	if ok {
		return p, true
	}
	p, err := c.store.Get(path)
	if err != nil {
		if !errors.Is(err, ErrPageNotFound) {
			c.logger.Errorf("page store get %s: %v", path, err)
		}
		return Page{}, false
	}
	c.mu.Lock()
	c.pages[path] = p
	c.mu.Unlock()
	return p, true
}

// Peek returns the page held for path. A stale page is returned as is and
// regenerated in the background.
func (c *PageCache) Peek(path string) (Page, bool) {
	p, ok := c.Lookup(path)
	if ok && p.Stale(c.now()) {
		c.revalidate(path)
	}
	return p, ok
}

// Get is Peek, generating the page when none is held.
func (c *PageCache) Get(ctx context.Context, path string) (Page, error) {
	if p, ok := c.Peek(path); ok {
		return p, nil
	}
	return c.Refresh(ctx, path)
}

func (c *PageCache) revalidate(path string) {
	c.regenMu.Lock()
	_, running := c.regens[path]
	c.regenMu.Unlock()
	if running {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.Refresh(context.Background(), path); err != nil {
			c.logger.Warnf("revalidate %s: %v", path, err)
		}
	}()
}

// Refresh regenerates path now and stores the result. Callers refreshing
// the same path concurrently share one generation. When the content is
// gone the page is dropped; any other failure keeps the previous page.
func (c *PageCache) Refresh(ctx context.Context, path string) (Page, error) {
	c.regenMu.Lock()
	if r, ok := c.regens[path]; ok {
		c.regenMu.Unlock()
		select {
		case <-r.done:
			return r.page, r.err
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}
	r := &regen{done: make(chan struct{})}
	c.regens[path] = r
	c.regenMu.Unlock()

	r.page, r.err = c.generate(context.WithoutCancel(ctx), path)
	switch {
	case r.err == nil:
		r.err = c.Put(r.page)
	case errors.Is(r.err, prismic.ErrNotFound):
		if err := c.Invalidate(path); err != nil {
			c.logger.Errorf("drop %s: %v", path, err)
		}
	}

	c.regenMu.Lock()
	delete(c.regens, path)
	c.regenMu.Unlock()
	close(r.done)
	return r.page, r.err
}

// Put stores p in memory and in the page store.
func (c *PageCache) Put(p Page) error {
	c.mu.Lock()
	c.pages[p.Path] = p
	c.mu.Unlock()
	return c.store.Put(p)
}

// Invalidate drops the page held for path.
func (c *PageCache) Invalidate(path string) error {
	c.mu.Lock()
	delete(c.pages, path)
	c.mu.Unlock()
	return c.store.Delete(path)
}

// Pages lists every held page without its body.
func (c *PageCache) Pages() ([]Page, error) {
	return c.store.List()
}

// Stale returns the paths of held pages due for regeneration.
func (c *PageCache) Stale() ([]string, error) {
	pages, err := c.store.List()
	if err != nil {
		return nil, err
	}
	now := c.now()
	var paths []string
	for _, p := range pages {
		if p.Stale(now) {
			paths = append(paths, p.Path)
		}
	}
	return paths, nil
}

// Wait blocks until background regenerations have finished.
func (c *PageCache) Wait() {
	c.wg.Wait()
}
