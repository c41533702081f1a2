package bus

import "time"

// Event represents a message published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds understood by the background worker and the watcher.
const (
	// KindSimulatePush asks the worker to display a notification as if a
	// push message had arrived. Payload: PushPayload.
	KindSimulatePush = "push.simulate"

	// KindSubscriptionChange signals that the push subscription expired or
	// rotated and must be re-registered. Payload: SubscriptionChange.
	KindSubscriptionChange = "push.subscriptionchange"

	// KindNetOnline and KindNetOffline are emitted by the connectivity
	// watcher on mode transitions. No payload.
	KindNetOnline  = "net.online"
	KindNetOffline = "net.offline"
)

// PushPayload is the displayable content of a (simulated) push message.
type PushPayload struct {
	Title   string
	Body    string
	StoryID string
}

// SubscriptionChange carries the replacement subscription keys.
type SubscriptionChange struct {
	Endpoint string
	P256dh   string
	Auth     string
}
