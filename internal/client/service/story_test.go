package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/narratlas/narratlas/internal/client/api"
	"github.com/narratlas/narratlas/internal/client/models"
	"github.com/narratlas/narratlas/internal/client/store"
	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/logging"
)

type fakeGateway struct {
	api.StoryGateway

	createFn  func(req api.CreateStoryRequest) (*api.CreateStoryResult, error)
	storiesFn func() ([]api.RemoteStory, error)
	loginFn   func(email, password string) (*api.LoginResult, error)
}

func (f *fakeGateway) CreateStory(_ context.Context, req api.CreateStoryRequest) (*api.CreateStoryResult, error) {
	return f.createFn(req)
}

func (f *fakeGateway) GetStories(context.Context, int, int, bool) ([]api.RemoteStory, error) {
	return f.storiesFn()
}

func (f *fakeGateway) Login(_ context.Context, email, password string) (*api.LoginResult, error) {
	return f.loginFn(email, password)
}

type fakeSession struct {
	token, id, name string
}

func (f *fakeSession) Token() string               { return f.token }
func (f *fakeSession) SaveToken(t string) error    { f.token = t; return nil }
func (f *fakeSession) ClearToken() error           { f.token = ""; return nil }
func (f *fakeSession) UserID() string              { return f.id }
func (f *fakeSession) UserName() string            { return f.name }
func (f *fakeSession) SaveUser(id, n string) error { f.id, f.name = id, n; return nil }
func (f *fakeSession) ClearUser() error            { f.id, f.name = "", ""; return nil }

func newRepo(t *testing.T) store.Repository {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	db, repo, err := store.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "svc.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repo
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func validInput() models.NewStoryInput {
	return models.NewStoryInput{
		Title:       "Sunset at Kuta",
		Description: "Waves and colors",
		Photo:       []byte{0xFF, 0xD8, 0x01},
		PhotoName:   "kuta.jpg",
	}
}

func f64(v float64) *float64 { return &v }

func TestSubmitOnlineStoresSyncedEntry(t *testing.T) {
	repo := newRepo(t)
	gw := &fakeGateway{createFn: func(req api.CreateStoryRequest) (*api.CreateStoryResult, error) {
		return &api.CreateStoryResult{
			OK:     true,
			Status: http.StatusCreated,
			Data:   &api.StoryData{ID: "story-1", PhotoURL: "https://cdn/1.jpg"},
		}, nil
	}}
	svc := NewStoryService(repo, gw, &fakeSession{id: "user-1"}, discardLogger())

	res, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)
	require.False(t, res.Queued)
	require.Equal(t, "story-1", res.Entry.ID)
	require.True(t, res.Entry.IsSynced)
	require.Equal(t, "user-1", res.Entry.UserID)

	got, err := repo.Get(context.Background(), "story-1")
	require.NoError(t, err)
	require.True(t, got.IsSynced)
	require.Equal(t, "https://cdn/1.jpg", got.PhotoURL)
	require.Nil(t, got.PhotoFile, "an accepted story keeps no local blob")
}

func TestSubmitOfflineQueuesPendingEntry(t *testing.T) {
	repo := newRepo(t)
	gw := &fakeGateway{createFn: func(api.CreateStoryRequest) (*api.CreateStoryResult, error) {
		return nil, errors.New("no route to host")
	}}
	svc := NewStoryService(repo, gw, &fakeSession{id: "user-1"}, discardLogger())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }

	res, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err, "a transport failure queues, it does not fail")
	require.True(t, res.Queued)
	require.Equal(t, "offline-1700000000000", res.Entry.ID)
	require.True(t, models.IsOfflineID(res.Entry.ID))

	pending, err := repo.GetPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.False(t, pending[0].IsSynced)
	require.Equal(t, []byte{0xFF, 0xD8, 0x01}, pending[0].PhotoFile, "the blob must be retained for the deferred upload")
	require.Equal(t, "kuta.jpg", pending[0].PhotoName)
}

func TestSubmitServerRejectionStoresNothing(t *testing.T) {
	repo := newRepo(t)
	gw := &fakeGateway{createFn: func(api.CreateStoryRequest) (*api.CreateStoryResult, error) {
		return &api.CreateStoryResult{OK: false, Status: http.StatusBadRequest, Message: "too large"}, nil
	}}
	svc := NewStoryService(repo, gw, &fakeSession{id: "user-1"}, discardLogger())

	_, err := svc.Submit(context.Background(), validInput())
	require.ErrorIs(t, err, common.ErrRejected)
	require.ErrorContains(t, err, "too large")

	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSubmitValidationShortCircuits(t *testing.T) {
	gw := &fakeGateway{createFn: func(api.CreateStoryRequest) (*api.CreateStoryResult, error) {
		t.Fatal("invalid input must never reach the gateway")
		return nil, nil
	}}
	svc := NewStoryService(newRepo(t), gw, &fakeSession{}, discardLogger())

	in := validInput()
	in.Description = "  "
	_, err := svc.Submit(context.Background(), in)
	require.ErrorIs(t, err, common.ErrMissingDescription)

	in = validInput()
	in.Photo = make([]byte, models.MaxPhotoSize+1)
	_, err = svc.Submit(context.Background(), in)
	require.ErrorIs(t, err, common.ErrPhotoTooLarge)

	in = validInput()
	in.Lat = f64(1.5)
	_, err = svc.Submit(context.Background(), in)
	require.ErrorIs(t, err, common.ErrPartialCoordinates)
}

func TestListOverlaysLocalState(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, &models.StoryEntry{
		ID:        "story-1",
		Title:     "My pinned title",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
		IsSynced:  true,
	}))

	gw := &fakeGateway{storiesFn: func() ([]api.RemoteStory, error) {
		return []api.RemoteStory{
			{ID: "story-1", Name: "Alice", Description: "d1"},
			{ID: "story-2", Name: "Bob", Description: "d2"},
		}, nil
	}}
	svc := NewStoryService(repo, gw, &fakeSession{id: "user-1"}, discardLogger())

	items, err := svc.List(ctx, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.True(t, items[0].Saved)
	require.Equal(t, "My pinned title", items[0].Title)
	require.False(t, items[1].Saved)
	require.Empty(t, items[1].Title)
}

func TestSavedFiltersAndSorts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	sess := &fakeSession{id: "user-1"}
	svc := NewStoryService(repo, &fakeGateway{}, sess, discardLogger())

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.StoryEntry{
		{ID: "a", Title: "Beach day", Description: "sand", UserID: "user-1", CreatedAt: base, IsSynced: true},
		{ID: "b", Title: "Mountains", Description: "a beach of clouds", UserID: "user-1", CreatedAt: base.Add(time.Hour), IsSynced: true},
		{ID: "c", Title: "City", Description: "traffic", UserID: "user-1", CreatedAt: base.Add(2 * time.Hour), IsSynced: true},
		{ID: "d", Title: "Beach bar", Description: "drinks", UserID: "user-2", CreatedAt: base, IsSynced: true},
	}
	for i := range entries {
		require.NoError(t, repo.Put(ctx, &entries[i]))
	}

	got, err := svc.Saved(ctx, "beach", true)
	require.NoError(t, err)
	require.Len(t, got, 2, "keyword matches title or description, scoped to the session user")
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)

	got, err = svc.Saved(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "c", got[0].ID, "descending puts the newest first")
}

func TestSaveAndRemoveFavorite(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	svc := NewStoryService(repo, &fakeGateway{}, &fakeSession{id: "user-1"}, discardLogger())

	story := api.RemoteStory{
		ID:          "story-9",
		Name:        "Alice",
		Description: "remote story",
		PhotoURL:    "https://cdn/9.jpg",
		CreatedAt:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, svc.Save(ctx, story, ""))

	got, err := repo.Get(ctx, "story-9")
	require.NoError(t, err)
	require.Equal(t, "Alice", got.Title, "an empty title falls back to the author name")
	require.Equal(t, "user-1", got.UserID)
	require.True(t, got.IsSynced)

	require.NoError(t, svc.Remove(ctx, "story-9"))
	_, err = repo.Get(ctx, "story-9")
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, svc.Remove(ctx, "story-9"), "removing twice is not an error")
}
