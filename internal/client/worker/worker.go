// Package worker runs the client's background goroutine: it consumes push
// events from the bus, shows notifications, re-registers rotated push
// subscriptions, and periodically sweeps the response cache.
package worker

import (
	"context"
	"time"

	"github.com/narratlas/narratlas/internal/bus"
	"github.com/narratlas/narratlas/internal/client/api"
	"github.com/narratlas/narratlas/internal/logging"
)

const (
	defaultTitle = "Narratlas"
	defaultBody  = "You have a new story notification"
)

// Notifier displays a notification to the user. The CLI prints to the
// terminal; a desktop build could bridge to the OS notification center.
type Notifier interface {
	Notify(title, body string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title, body string)

func (f NotifierFunc) Notify(title, body string) { f(title, body) }

// Sweeper evicts expired cache entries and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// Worker is the background event consumer.
type Worker struct {
	bus      *bus.Bus
	gateway  api.StoryGateway
	notifier Notifier
	sweeper  Sweeper
	log      logging.Logger

	sweepInterval time.Duration
}

func New(b *bus.Bus, gw api.StoryGateway, n Notifier, s Sweeper, log logging.Logger, sweepInterval time.Duration) *Worker {
	return &Worker{
		bus:           b,
		gateway:       gw,
		notifier:      n,
		sweeper:       s,
		log:           log,
		sweepInterval: sweepInterval,
	}
}

// Run consumes events until ctx is cancelled. It subscribes to the push
// namespace only; net.* traffic is none of its business.
func (w *Worker) Run(ctx context.Context) {
	events, unsubscribe := w.bus.Subscribe("push.", 32)
	defer unsubscribe()

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-events:
			w.handle(ctx, evt)
		case <-ticker.C:
			if w.sweeper != nil {
				if n := w.sweeper.Sweep(); n > 0 {
					w.log.Debug(ctx, "swept response cache", "evicted", n)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, evt bus.Event) {
	switch evt.Kind {
	case bus.KindSimulatePush:
		payload, ok := evt.Payload.(bus.PushPayload)
		if !ok {
			w.log.Warn(ctx, "push event with unexpected payload", "kind", evt.Kind)
			return
		}
		w.display(payload)

	case bus.KindSubscriptionChange:
		change, ok := evt.Payload.(bus.SubscriptionChange)
		if !ok {
			w.log.Warn(ctx, "subscription event with unexpected payload", "kind", evt.Kind)
			return
		}
		err := w.gateway.SubscribePush(ctx, api.PushSubscription{
			Endpoint: change.Endpoint,
			P256dh:   change.P256dh,
			Auth:     change.Auth,
		})
		if err != nil {
			w.log.Error(ctx, "failed to re-register push subscription", "error", err)
			return
		}
		w.log.Info(ctx, "push subscription re-registered", "endpoint", change.Endpoint)

	default:
		w.log.Debug(ctx, "ignoring event", "kind", evt.Kind)
	}
}

// display fills missing fields with defaults so a bare event still renders.
func (w *Worker) display(p bus.PushPayload) {
	title := p.Title
	if title == "" {
		title = defaultTitle
	}
	body := p.Body
	if body == "" {
		body = defaultBody
	}
	w.notifier.Notify(title, body)
}
