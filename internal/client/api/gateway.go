// Package api implements the client side of the Narratlas story API: the
// gateway interface the rest of the client depends on, and its HTTP
// implementation.
package api

import (
	"context"
	"time"
)

// CreateStoryRequest is the payload of a story create call.
type CreateStoryRequest struct {
	Description string
	Photo       []byte
	PhotoName   string
	// Lat and Lon travel only as a pair.
	Lat *float64
	Lon *float64
}

// StoryData is the server-accepted view of a created story.
type StoryData struct {
	ID       string
	PhotoURL string
	Lat      *float64
	Lon      *float64
}

// CreateStoryResult reports the outcome of a create call. A non-nil result
// with OK == false means the server (or a local short-circuit, e.g. missing
// token) rejected the story; transport failures are returned as errors
// instead.
type CreateStoryResult struct {
	OK      bool
	Status  int
	Data    *StoryData
	Message string
}

// RemoteStory is a story as listed by the server.
type RemoteStory struct {
	ID          string
	Name        string
	Description string
	PhotoURL    string
	Lat         *float64
	Lon         *float64
	CreatedAt   time.Time
}

// LoginResult carries the session identity issued by the server.
type LoginResult struct {
	Token  string
	UserID string
	Name   string
}

// PushSubscription identifies a push endpoint with its crypto keys.
type PushSubscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// StoryGateway is the remote service boundary for story entries.
type StoryGateway interface {
	// Ping probes server reachability.
	Ping(ctx context.Context) error

	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// GetStories lists stories. page/size of 0 mean server defaults;
	// withLocation restricts to located stories.
	GetStories(ctx context.Context, page, size int, withLocation bool) ([]RemoteStory, error)
	GetStoryByID(ctx context.Context, id string) (*RemoteStory, error)

	// CreateStory submits a story. Without a session token it returns a
	// local 401-equivalent result instead of sending the request. A
	// missing photo payload is omitted from the request rather than
	// failing the call.
	CreateStory(ctx context.Context, req CreateStoryRequest) (*CreateStoryResult, error)

	SubscribePush(ctx context.Context, sub PushSubscription) error
	UnsubscribePush(ctx context.Context, endpoint string) error
}
