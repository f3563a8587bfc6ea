// internal/browser/network.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// networkQuietPeriod is how long the wire must stay silent before the page
// counts as idle.
const networkQuietPeriod = 500 * time.Millisecond

// networkTracker mirrors the tab's in-flight request set from CDP network
// events. WebSockets and EventSource streams never "finish", so idleness is
// defined as no request activity for a quiet period, not an empty set forever.
type networkTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	lastSeen time.Time
}

func newNetworkTracker(tabCtx context.Context) *networkTracker {
	t := &networkTracker{
		inflight: make(map[network.RequestID]struct{}),
		lastSeen: time.Now(),
	}
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			t.track(e.RequestID, true)
		case *network.EventLoadingFinished:
			t.track(e.RequestID, false)
		case *network.EventLoadingFailed:
			t.track(e.RequestID, false)
		}
	})
	return t
}

func (t *networkTracker) track(id network.RequestID, start bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if start {
		t.inflight[id] = struct{}{}
	} else {
		delete(t.inflight, id)
	}
	t.lastSeen = time.Now()
}

func (t *networkTracker) snapshot() (pending int, lastSeen time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight), t.lastSeen
}

// awaitIdle blocks until the wire has been quiet with nothing in flight, or
// timeout elapses.
func (t *networkTracker) awaitIdle(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		pending, lastSeen := t.snapshot()
		if pending == 0 && time.Since(lastSeen) >= networkQuietPeriod {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("network still active after %s: %d requests in flight", timeout, pending)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
