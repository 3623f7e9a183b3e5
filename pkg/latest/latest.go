// Package latest implements latest-wins ordering for asynchronous requests.
//
// A Guard hands out monotonically increasing tickets. Issuing a new ticket
// cancels the context of the previous one, and completions carrying an
// outdated ticket are reported stale so callers can drop them.
//
//	tk, ctx := g.Begin(parent)
//	go func() { res, err := fetch(ctx); send(result{tk, res, err}) }()
//	...
//	if !g.IsCurrent(msg.tk) { return } // superseded
package latest

import (
	"context"
	"sync"
)

// Ticket identifies one issued request. The zero Ticket is never current.
type Ticket uint64

// Guard tracks the newest issued ticket. It is safe for concurrent use,
// although the TUI only touches it from its Update loop.
type Guard struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin issues a new ticket, cancels the previous request and returns a
// context derived from parent for the new one.
func (g *Guard) Begin(parent context.Context) (Ticket, context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	g.cancel = cancel
	return Ticket(g.gen), ctx
}

// Next issues a ticket without a context, for work that has no request to
// cancel. It still supersedes every earlier ticket.
func (g *Guard) Next() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
	return Ticket(g.gen)
}

// IsCurrent reports whether t is the most recently issued ticket.
func (g *Guard) IsCurrent(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return t != 0 && uint64(t) == g.gen
}

// Finish releases the context of t if it is still current. Completions call
// it once their result has been applied.
func (g *Guard) Finish(t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if uint64(t) == g.gen && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Cancel aborts the in-flight request, if any, and invalidates its ticket.
func (g *Guard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
}

// Current returns the newest ticket, or 0 when none was issued.
func (g *Guard) Current() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Ticket(g.gen)
}

// Join returns a context that is done when either ctx or issued is done.
// Jobs use it to honour both the caller's context and supersession.
func Join(ctx, issued context.Context) (context.Context, context.CancelFunc) {
	joined, cancel := context.WithCancel(ctx)
	if issued == nil {
		return joined, cancel
	}
	stop := context.AfterFunc(issued, cancel)
	return joined, func() {
		stop()
		cancel()
	}
}
