// Package service implements the client's use cases on top of the store, the
// gateway and the session: story submission with offline fallback, remote
// listing with local overlay, and saved favorites.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/narratlas/narratlas/internal/client/api"
	"github.com/narratlas/narratlas/internal/client/models"
	"github.com/narratlas/narratlas/internal/client/session"
	"github.com/narratlas/narratlas/internal/client/store"
	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/logging"
)

// SubmitResult reports where a submitted story ended up.
type SubmitResult struct {
	Entry models.StoryEntry
	// Queued is true when the story was stored locally for later sync
	// instead of reaching the server.
	Queued bool
}

// ListItem is a remote story enriched with local state.
type ListItem struct {
	api.RemoteStory
	// Title is the locally cached title, when the story is saved.
	Title string
	// Saved reports whether a local record exists for the story.
	Saved bool
}

// StoryService drives story submission, listing and favorites.
type StoryService struct {
	store   store.Repository
	gateway api.StoryGateway
	session session.Provider
	log     logging.Logger

	now func() time.Time
}

func NewStoryService(st store.Repository, gw api.StoryGateway, sess session.Provider, log logging.Logger) *StoryService {
	return &StoryService{
		store:   st,
		gateway: gw,
		session: sess,
		log:     log,
		now:     time.Now,
	}
}

// Submit validates the input and tries the server first. A transport failure
// falls back to a durable pending entry under an offline id; a server
// rejection is surfaced to the caller and nothing is stored.
func (s *StoryService) Submit(ctx context.Context, in models.NewStoryInput) (*SubmitResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	res, err := s.gateway.CreateStory(ctx, api.CreateStoryRequest{
		Description: in.Description,
		Photo:       in.Photo,
		PhotoName:   in.PhotoName,
		Lat:         in.Lat,
		Lon:         in.Lon,
	})
	if err != nil {
		s.log.Info(ctx, "server unreachable, queueing story for sync", "error", err)
		return s.queueOffline(ctx, in, now)
	}
	if !res.OK {
		return nil, fmt.Errorf("%w: %s (status %d)", common.ErrRejected, res.Message, res.Status)
	}

	entry := models.StoryEntry{
		ID:          res.Data.ID,
		Title:       in.Title,
		Description: in.Description,
		PhotoURL:    res.Data.PhotoURL,
		Lat:         in.Lat,
		Lon:         in.Lon,
		UserID:      s.session.UserID(),
		CreatedAt:   now,
		IsSynced:    true,
		SyncedAt:    &now,
	}
	if res.Data.Lat != nil && res.Data.Lon != nil {
		entry.Lat, entry.Lon = res.Data.Lat, res.Data.Lon
	}
	if err := s.store.Put(ctx, &entry); err != nil {
		return nil, err
	}
	return &SubmitResult{Entry: entry}, nil
}

func (s *StoryService) queueOffline(ctx context.Context, in models.NewStoryInput, now time.Time) (*SubmitResult, error) {
	entry := models.StoryEntry{
		ID:          models.NewOfflineID(now),
		Title:       in.Title,
		Description: in.Description,
		PhotoFile:   in.Photo,
		PhotoName:   in.PhotoName,
		Lat:         in.Lat,
		Lon:         in.Lon,
		UserID:      s.session.UserID(),
		CreatedAt:   now,
		IsSynced:    false,
	}
	if err := s.store.Put(ctx, &entry); err != nil {
		return nil, err
	}
	return &SubmitResult{Entry: entry, Queued: true}, nil
}

// List fetches stories from the server and overlays local state on each.
func (s *StoryService) List(ctx context.Context, page, size int, withLocation bool) ([]ListItem, error) {
	remote, err := s.gateway.GetStories(ctx, page, size, withLocation)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(remote))
	for _, story := range remote {
		item := ListItem{RemoteStory: story}
		local, err := s.store.Get(ctx, story.ID)
		switch {
		case err == nil:
			item.Saved = true
			item.Title = local.Title
		case !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Save stores a remote story locally for offline reading, owned by the
// current session user.
func (s *StoryService) Save(ctx context.Context, story api.RemoteStory, title string) error {
	if title == "" {
		title = story.Name
	}
	now := s.now().UTC()
	entry := models.StoryEntry{
		ID:          story.ID,
		Title:       title,
		Description: story.Description,
		PhotoURL:    story.PhotoURL,
		Lat:         story.Lat,
		Lon:         story.Lon,
		UserID:      s.session.UserID(),
		CreatedAt:   story.CreatedAt,
		IsSynced:    true,
		SyncedAt:    &now,
	}
	return s.store.Put(ctx, &entry)
}

// Saved returns the current user's locally stored entries, optionally
// filtered by a case-insensitive keyword over title and description, ordered
// by creation time.
func (s *StoryService) Saved(ctx context.Context, keyword string, ascending bool) ([]models.StoryEntry, error) {
	entries, err := s.store.GetByUser(ctx, s.session.UserID())
	if err != nil {
		return nil, err
	}

	if keyword != "" {
		kw := strings.ToLower(keyword)
		filtered := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), kw) || strings.Contains(strings.ToLower(e.Description), kw) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if ascending {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Remove deletes a locally stored entry. Removing an id that is not stored
// is not an error.
func (s *StoryService) Remove(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
