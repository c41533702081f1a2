// Package httpapi exposes the story API over HTTP: account registration and
// login, story publishing and listing, and push subscription management.
// Responses follow a single envelope shape so clients can always read
// error/message before looking at the payload fields.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/narratlas/narratlas/internal/logging"
	"github.com/narratlas/narratlas/internal/server/models"
	"github.com/narratlas/narratlas/internal/server/services"
)

// UserProvider is the account surface the API needs.
type UserProvider interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// StoryProvider publishes and reads stories.
type StoryProvider interface {
	Create(ctx context.Context, in services.CreateStoryInput) (*models.Story, error)
	List(ctx context.Context, page, size int, withLocation bool) ([]*models.Story, error)
	Get(ctx context.Context, id string) (*models.Story, error)
}

// PushProvider manages push subscriptions.
type PushProvider interface {
	Subscribe(ctx context.Context, userID string, sub *models.Subscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

type Handler struct {
	Router chi.Router

	users   UserProvider
	stories StoryProvider
	push    PushProvider
	log     logging.Logger
}

// NewHandler wires all routes. Everything under /v1 except ping, register and
// login requires a bearer token.
func NewHandler(users UserProvider, stories StoryProvider, push PushProvider, secret []byte, log logging.Logger) *Handler {
	h := &Handler{users: users, stories: stories, push: push, log: log}

	r := chi.NewRouter()
	r.Use(WithLogging(log))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ping", h.ping)
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(secret))
			r.Get("/stories", h.listStories)
			r.Get("/stories/{id}", h.getStory)
			r.Post("/stories", h.createStory)
			r.Post("/notifications/subscribe", h.subscribePush)
			r.Delete("/notifications/subscribe", h.unsubscribePush)
		})
	})

	h.Router = r
	return h
}

func (h *Handler) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Error: false, Message: "pong"})
}
