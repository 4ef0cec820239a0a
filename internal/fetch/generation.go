package fetch

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned for a response that was superseded by a newer request
// for the same view before it arrived
var ErrStale = errors.New("response superseded by a newer request")

// Generations hands out one token per parameterized fetch. Starting a new
// fetch for a view cancels the previous one, and its result is rejected even
// if it already arrived.
type Generations struct {
	mu    sync.Mutex
	next  uint64
	views map[string]*inflight
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Token identifies one fetch of one view
type Token struct {
	g    *Generations
	view string
	gen  uint64
}

// NewGenerations creates an empty tracker
func NewGenerations() *Generations {
	return &Generations{views: make(map[string]*inflight)}
}

// Begin starts a new generation for view. The returned context is cancelled
// when a newer generation begins or when Done is called.
func (g *Generations) Begin(ctx context.Context, view string) (context.Context, Token) {
	ctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.views[view]; ok {
		prev.cancel()
	}
	// One counter across views so a pruned view never reissues a number
	g.next++
	gen := g.next
	g.views[view] = &inflight{gen: gen, cancel: cancel}
	return ctx, Token{g: g, view: view, gen: gen}
}

// Current reports whether no newer fetch of the same view has begun
func (t Token) Current() bool {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	cur, ok := t.g.views[t.view]
	return ok && cur.gen == t.gen
}

// Check returns ErrStale when the token has been superseded
func (t Token) Check() error {
	if !t.Current() {
		return ErrStale
	}
	return nil
}

// Done releases the token's context and forgets the view if the token is
// still current. A late older token stays stale because generation numbers
// are never reused.
func (t Token) Done() {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if cur, ok := t.g.views[t.view]; ok && cur.gen == t.gen {
		cur.cancel()
		delete(t.g.views, t.view)
	}
}

// Len returns the number of views with a fetch in flight
func (g *Generations) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.views)
}
