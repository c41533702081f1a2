// Package syncer delivers locally stored pending stories to the remote
// gateway and reconciles them with the server-assigned identity.
package syncer

import (
	"context"
	"time"

	"github.com/narratlas/narratlas/internal/client/api"
	"github.com/narratlas/narratlas/internal/client/models"
	"github.com/narratlas/narratlas/internal/client/session"
	"github.com/narratlas/narratlas/internal/client/store"
	"github.com/narratlas/narratlas/internal/logging"
)

// Syncer pushes pending entries to the gateway one at a time. It never
// retries within a run; a failed entry simply stays pending until the next
// invocation.
type Syncer struct {
	store   store.Repository
	gateway api.StoryGateway
	session session.Provider
	log     logging.Logger

	now func() time.Time
}

func New(st store.Repository, gw api.StoryGateway, sess session.Provider, log logging.Logger) *Syncer {
	return &Syncer{
		store:   st,
		gateway: gw,
		session: sess,
		log:     log,
		now:     time.Now,
	}
}

// SyncPendingStories submits every pending entry and returns the entries
// that were accepted, already reconciled. With nothing pending it returns
// immediately without touching the gateway. A failure on one entry is
// logged and does not stop the rest of the batch.
func (s *Syncer) SyncPendingStories(ctx context.Context) ([]models.StoryEntry, error) {
	pending, err := s.store.GetPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	s.log.Info(ctx, "syncing pending stories", "count", len(pending))

	var synced []models.StoryEntry
	for _, entry := range pending {
		res, err := s.gateway.CreateStory(ctx, api.CreateStoryRequest{
			Description: entry.Description,
			Photo:       entry.PhotoFile,
			PhotoName:   entry.PhotoName,
			Lat:         entry.Lat,
			Lon:         entry.Lon,
		})
		if err != nil {
			s.log.Warn(ctx, "sync attempt failed, entry stays pending", "id", entry.ID, "error", err)
			continue
		}
		if !res.OK {
			s.log.Warn(ctx, "server rejected pending story", "id", entry.ID, "status", res.Status, "message", res.Message)
			continue
		}

		reconciled, err := s.reconcile(ctx, entry, res)
		if err != nil {
			s.log.Error(ctx, "failed to persist synced story", "id", entry.ID, "error", err)
			continue
		}
		synced = append(synced, reconciled)
	}

	if len(synced) > 0 {
		s.log.Info(ctx, "sync finished", "synced", len(synced), "pending", len(pending)-len(synced))
	}
	return synced, nil
}

// reconcile merges the server's view into the local entry: server-assigned
// id, photo URL and coordinates win where present, local values hold
// otherwise. The photo blob is dropped once the server owns the upload, and
// an entry stored under an offline id moves to its server id.
func (s *Syncer) reconcile(ctx context.Context, entry models.StoryEntry, res *api.CreateStoryResult) (models.StoryEntry, error) {
	oldID := entry.ID

	if res.Data != nil {
		if res.Data.ID != "" {
			entry.ID = res.Data.ID
		}
		if res.Data.PhotoURL != "" {
			entry.PhotoURL = res.Data.PhotoURL
		}
		if res.Data.Lat != nil && res.Data.Lon != nil {
			entry.Lat = res.Data.Lat
			entry.Lon = res.Data.Lon
		}
	}
	if entry.UserID == "" {
		entry.UserID = s.session.UserID()
	}

	now := s.now()
	entry.IsSynced = true
	entry.SyncedAt = &now
	entry.PhotoFile = nil

	if err := s.store.Put(ctx, &entry); err != nil {
		return models.StoryEntry{}, err
	}
	if entry.ID != oldID {
		if err := s.store.Delete(ctx, oldID); err != nil {
			return models.StoryEntry{}, err
		}
	}
	return entry, nil
}
