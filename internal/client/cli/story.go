package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/narratlas/narratlas/internal/bus"
	"github.com/narratlas/narratlas/internal/client/models"
)

// Add collects a new story interactively and submits it. While the server is
// unreachable the story is queued locally and delivered on the next sync.
func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description", os.Stdout)
	if err != nil {
		return err
	}
	photoPath, err := getSimpleText(a.reader, "Photo file", os.Stdout)
	if err != nil {
		return err
	}
	photo, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	in := models.NewStoryInput{
		Title:       title,
		Description: description,
		Photo:       photo,
		PhotoName:   filepath.Base(photoPath),
	}

	coords, err := getSimpleText(a.reader, "Coordinates as lat,lon (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	if coords != "" {
		lat, lon, err := parseCoordinates(coords)
		if err != nil {
			return err
		}
		in.Lat, in.Lon = &lat, &lon
	}

	res, err := a.stories.Submit(ctx, in)
	if err != nil {
		return err
	}
	if res.Queued {
		printlnFn("Server unreachable; story saved locally as", res.Entry.ID, "and will sync automatically.")
	} else {
		printlnFn("Story published as", res.Entry.ID)
	}
	return nil
}

// List prints stories from the server, newest first, marking saved ones.
func (a *App) List(ctx context.Context) error {
	items, err := a.stories.List(ctx, 0, 0, false)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("No stories yet.")
		return nil
	}
	for _, item := range items {
		marker := " "
		if item.Saved {
			marker = "*"
		}
		printlnFn(fmt.Sprintf("%s %s  %s  %s  %s",
			marker, item.ID, item.CreatedAt.Format("2006-01-02"), item.Name, firstLine(item.Description)))
	}
	return nil
}

// Saved prints the locally stored stories of the current user. An optional
// keyword filters by title or description; "asc" flips the order to oldest
// first.
func (a *App) Saved(ctx context.Context, args []string) error {
	keyword := ""
	ascending := false
	for _, arg := range args {
		if arg == "asc" {
			ascending = true
			continue
		}
		keyword = arg
	}

	entries, err := a.stories.Saved(ctx, keyword, ascending)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printlnFn("Nothing saved.")
		return nil
	}
	for _, e := range entries {
		state := "synced"
		if !e.IsSynced {
			state = "pending"
		}
		printlnFn(fmt.Sprintf("%s  %s  [%s]  %s", e.ID, e.CreatedAt.Format("2006-01-02"), state, e.Title))
	}
	return nil
}

// Sync pushes pending stories right away instead of waiting for the watcher.
func (a *App) Sync(ctx context.Context) error {
	synced, err := a.engine.SyncPendingStories(ctx)
	if err != nil {
		return err
	}
	if len(synced) == 0 {
		printlnFn("Nothing to sync.")
		return nil
	}
	for _, e := range synced {
		printlnFn("Synced:", e.ID)
	}
	return nil
}

// Delete removes locally saved stories by id.
func (a *App) Delete(ctx context.Context, args []string) error {
	for _, id := range args {
		if err := a.stories.Remove(ctx, id); err != nil {
			return err
		}
		printlnFn("Removed:", id)
	}
	return nil
}

// SimulatePush publishes a push event on the bus, exercising the same path a
// real push message would take through the background worker.
func (a *App) SimulatePush(ctx context.Context, args []string) error {
	payload := bus.PushPayload{}
	if len(args) > 0 {
		payload.Title = "Narratlas"
		payload.Body = strings.Join(args, " ")
	}
	a.bus.Publish(bus.Event{
		Kind:      bus.KindSimulatePush,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	return nil
}

func parseCoordinates(s string) (float64, float64, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	return lat, lon, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
