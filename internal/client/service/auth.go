package service

import (
	"context"
	"fmt"

	"github.com/narratlas/narratlas/internal/client/api"
	"github.com/narratlas/narratlas/internal/client/session"
	"github.com/narratlas/narratlas/internal/client/store"
	"github.com/narratlas/narratlas/internal/logging"
)

// AuthService manages the account lifecycle: registration, login and logout.
type AuthService struct {
	gateway api.StoryGateway
	session session.Provider
	store   store.Repository
	log     logging.Logger
}

func NewAuthService(gw api.StoryGateway, sess session.Provider, st store.Repository, log logging.Logger) *AuthService {
	return &AuthService{gateway: gw, session: sess, store: st, log: log}
}

func (a *AuthService) Register(ctx context.Context, name, email, password string) error {
	return a.gateway.Register(ctx, name, email, password)
}

// Login authenticates and persists the issued identity. Switching to a
// different account than the one stored locally wipes the local entries so
// the previous user's saved stories do not leak into the new session.
func (a *AuthService) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	res, err := a.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	previous := a.session.UserID()
	if previous != "" && previous != res.UserID {
		a.log.Info(ctx, "account switch detected, clearing local entries", "from", previous, "to", res.UserID)
		if err := a.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clearing local entries: %w", err)
		}
	}

	if err := a.session.SaveToken(res.Token); err != nil {
		return nil, err
	}
	if err := a.session.SaveUser(res.UserID, res.Name); err != nil {
		return nil, err
	}
	return res, nil
}

// Logout drops the session credentials. Local entries stay on disk so the
// same user finds their saved stories after logging back in.
func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.session.ClearToken(); err != nil {
		return err
	}
	a.log.Info(ctx, "logged out")
	return nil
}

// LoggedIn reports whether a session token is present.
func (a *AuthService) LoggedIn() bool {
	return a.session.Token() != ""
}
