package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eringen/spacetraveling/prismic"
)

// State is the rendering state of a slug.
type State int

const (
	// Unknown slugs were neither pre-rendered nor requested yet.
	Unknown State = iota
	// Prerendered slugs were resolved when the site was generated.
	Prerendered
	// FallbackPending slugs are being resolved; a placeholder is shown.
	FallbackPending
	// Resolved slugs were resolved on demand after a fallback.
	Resolved
	// NotFound slugs do not exist in the repository.
	NotFound
)

func (s State) String() string {
	switch s {
	case Prerendered:
		return "pre-rendered"
	case FallbackPending:
		return "fallback-pending"
	case Resolved:
		return "resolved"
	case NotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// pendingTimeout is how long a slug stays FallbackPending without a
// resolution before it is forgotten.
const pendingTimeout = 5 * time.Minute

type entry struct {
	state State
	post  Post
	at    time.Time
}

type call struct {
	done chan struct{}
	post Post
	err  error
}

// Resolver tracks the state of every slug and runs the single resolution
// routine that moves slugs between states. Concurrent resolutions of the
// same slug share one fetch.
type Resolver struct {
	src Source
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	calls   map[string]*call
	pruned  time.Time
}

// NewResolver returns a Resolver fetching from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{
		src:     src,
		now:     time.Now,
		entries: make(map[string]*entry),
		calls:   make(map[string]*call),
	}
}

// Prerender resolves slugs eagerly and marks them pre-rendered. Slugs that
// vanished between enumeration and fetch are marked not found.
func (r *Resolver) Prerender(ctx context.Context, slugs []string) error {
	for _, slug := range slugs {
		post, err := Fetch(ctx, r.src, slug)
		r.mu.Lock()
		switch {
		case err == nil:
			r.entries[slug] = &entry{state: Prerendered, post: post, at: r.now()}
		case errors.Is(err, prismic.ErrNotFound):
			r.entries[slug] = &entry{state: NotFound, at: r.now()}
		}
		r.mu.Unlock()
		if err != nil && !errors.Is(err, prismic.ErrNotFound) {
			return fmt.Errorf("prerender %s: %w", slug, err)
		}
	}
	return nil
}

// State returns the current state of slug. A not-found verdict expires
// after RevalidateInterval so posts created later become reachable; a
// pending slug nobody resolves expires after pendingTimeout.
func (r *Resolver) State(slug string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked(slug)
}

func (r *Resolver) stateLocked(slug string) State {
	e, ok := r.entries[slug]
	if !ok {
		return Unknown
	}
	if expired(e, r.now()) {
		delete(r.entries, slug)
		return Unknown
	}
	return e.state
}

func expired(e *entry, now time.Time) bool {
	switch e.state {
	case NotFound:
		return now.Sub(e.at) >= RevalidateInterval
	case FallbackPending:
		return now.Sub(e.at) >= pendingTimeout
	}
	return false
}

// pruneLocked drops expired entries, at most once per pendingTimeout.
func (r *Resolver) pruneLocked() {
	now := r.now()
	if now.Sub(r.pruned) < pendingTimeout {
		return
	}
	r.pruned = now
	for slug, e := range r.entries {
		if expired(e, now) {
			delete(r.entries, slug)
		}
	}
}

// Post returns the resolved post for slug, if any.
func (r *Resolver) Post(slug string) (Post, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[slug]
	if !ok || (e.state != Prerendered && e.state != Resolved) {
		return Post{}, false
	}
	return e.post, true
}

// Begin records a request for slug. An unknown slug moves to
// FallbackPending; every other state is returned unchanged.
func (r *Resolver) Begin(slug string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.stateLocked(slug)
	if state == Unknown {
		r.pruneLocked()
		r.entries[slug] = &entry{state: FallbackPending, at: r.now()}
		return FallbackPending
	}
	return state
}

// Resolve fetches slug and records the outcome: success keeps a
// pre-rendered slug pre-rendered and marks any other slug resolved; a
// missing slug becomes NotFound; any other failure leaves previously
// resolved content in place and returns a pending slug to Unknown.
func (r *Resolver) Resolve(ctx context.Context, slug string) (Post, error) {
	r.mu.Lock()
	if c, ok := r.calls[slug]; ok {
		r.mu.Unlock()
		select {
		case <-c.done:
			return c.post, c.err
		case <-ctx.Done():
			return Post{}, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	r.calls[slug] = c
	r.mu.Unlock()

	// one caller going away must not fail the others waiting on this fetch
	c.post, c.err = Fetch(context.WithoutCancel(ctx), r.src, slug)

	r.mu.Lock()
	prev := r.stateLocked(slug)
	switch {
	case c.err == nil:
		next := Resolved
		if prev == Prerendered {
			next = Prerendered
		}
		r.entries[slug] = &entry{state: next, post: c.post, at: r.now()}
	case errors.Is(c.err, prismic.ErrNotFound):
		r.pruneLocked()
		r.entries[slug] = &entry{state: NotFound, at: r.now()}
	case prev == FallbackPending:
		delete(r.entries, slug)
	}
	delete(r.calls, slug)
	r.mu.Unlock()
	close(c.done)

	return c.post, c.err
}

// Forget drops everything known about slug.
func (r *Resolver) Forget(slug string) {
	r.mu.Lock()
	delete(r.entries, slug)
	r.mu.Unlock()
}

// Snapshot returns the state of every tracked slug.
func (r *Resolver) Snapshot() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]State, len(r.entries))
	for slug := range r.entries {
		if s := r.stateLocked(slug); s != Unknown {
			out[slug] = s
		}
	}
	return out
}
