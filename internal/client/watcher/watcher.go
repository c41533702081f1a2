// Package watcher probes server reachability and drives the sync engine on
// connectivity transitions.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/narratlas/narratlas/internal/bus"
	"github.com/narratlas/narratlas/internal/client/models"
	"github.com/narratlas/narratlas/internal/logging"
)

// Mode is the watcher's view of server reachability.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Pinger probes the remote endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Engine is the sync entry point the watcher invokes on an offline-to-online
// transition.
type Engine interface {
	SyncPendingStories(ctx context.Context) ([]models.StoryEntry, error)
}

// Watcher polls the gateway and fires the sync engine exactly once per
// regained-connectivity edge. Mode transitions are published on the bus;
// a successful sync of one or more entries is announced as a notification
// event.
type Watcher struct {
	pinger   Pinger
	engine   Engine
	bus      *bus.Bus
	log      logging.Logger
	interval time.Duration

	pingTimeout time.Duration
	now         func() time.Time

	mu   sync.Mutex
	mode Mode
}

func New(p Pinger, e Engine, b *bus.Bus, log logging.Logger, interval time.Duration) *Watcher {
	return &Watcher{
		pinger:      p,
		engine:      e,
		bus:         b,
		log:         log,
		interval:    interval,
		pingTimeout: 3 * time.Second,
		now:         time.Now,
		// starting offline makes the first successful probe an edge, so a
		// client launched with connectivity syncs right away
		mode: ModeOffline,
	}
}

// Mode reports the current connectivity mode.
func (w *Watcher) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Run polls until ctx is cancelled. The first probe happens immediately.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)
	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, w.pingTimeout)
	err := w.pinger.Ping(pingCtx)
	cancel()

	if err != nil {
		if w.setMode(ctx, ModeOffline) {
			w.log.Info(ctx, "connectivity lost, entering offline mode")
		}
		return
	}
	if w.setMode(ctx, ModeOnline) {
		w.log.Info(ctx, "connectivity regained, entering online mode")
		w.syncNow(ctx)
	}
}

// setMode reports whether the mode actually changed.
func (w *Watcher) setMode(ctx context.Context, mode Mode) bool {
	w.mu.Lock()
	changed := w.mode != mode
	w.mode = mode
	w.mu.Unlock()

	if changed {
		kind := bus.KindNetOffline
		if mode == ModeOnline {
			kind = bus.KindNetOnline
		}
		w.bus.Publish(bus.Event{Kind: kind, Timestamp: w.now()})
	}
	return changed
}

func (w *Watcher) syncNow(ctx context.Context) {
	synced, err := w.engine.SyncPendingStories(ctx)
	if err != nil {
		w.log.Error(ctx, "sync on reconnect failed", "error", err)
		return
	}
	if len(synced) == 0 {
		return
	}
	w.bus.Publish(bus.Event{
		Kind:      bus.KindSimulatePush,
		Timestamp: w.now(),
		Payload: bus.PushPayload{
			Title: "Stories synced",
			Body:  fmt.Sprintf("%d offline stories reached the server", len(synced)),
		},
	})
}
