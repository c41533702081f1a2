// Package models defines client-side data models used by the Narratlas CLI.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/narratlas/narratlas/internal/common"
)

// OfflineIDPrefix marks locally generated identifiers of entries that the
// server has not accepted yet. Server-assigned ids never carry it.
const OfflineIDPrefix = "offline-"

// MaxPhotoSize is the upper bound for a story photo payload, in bytes.
const MaxPhotoSize = 900 * 1024

// StoryEntry is a story record persisted locally. The same record space holds
// both server-accepted (synced) stories saved for offline reading and locally
// created stories awaiting delivery (pending).
type StoryEntry struct {
	// ID is the record key. Either a server-assigned opaque string or a
	// locally generated offline id (see NewOfflineID).
	ID string

	// Title is a locally cached display string; server-origin entries may
	// not have one.
	Title string

	// Description is the story text. Required for submission.
	Description string

	// PhotoURL is a displayable reference to the photo: a remote URL once
	// synced, or empty/local while pending.
	PhotoURL string

	// PhotoFile is the raw photo payload, retained only while the entry is
	// pending; it is needed to complete the deferred upload and cleared on
	// reconciliation.
	PhotoFile []byte

	// PhotoName is the original file name of the pending photo, used for
	// the multipart part when the upload happens.
	PhotoName string

	// Lat and Lon are either both set or both nil. A mixed pair is invalid.
	Lat *float64
	Lon *float64

	// UserID identifies the owning account. Entries without it are a
	// data-quality defect and are never returned by per-user queries.
	UserID string

	// CreatedAt is set once at creation time.
	CreatedAt time.Time

	// IsSynced reports whether the remote service has accepted the entry.
	IsSynced bool

	// SyncedAt is set only when a pending entry is reconciled.
	SyncedAt *time.Time
}

// NewOfflineID derives a local identifier for an entry created while offline.
func NewOfflineID(now time.Time) string {
	return fmt.Sprintf("%s%d", OfflineIDPrefix, now.UnixMilli())
}

// IsOfflineID reports whether id belongs to the local-offline namespace.
func IsOfflineID(id string) bool {
	return strings.HasPrefix(id, OfflineIDPrefix)
}

// HasCoordinates reports whether the entry carries a full coordinate pair.
func (e *StoryEntry) HasCoordinates() bool {
	return e.Lat != nil && e.Lon != nil
}

// ValidateCoordinates enforces the pairing invariant: lat and lon are either
// both present or both absent.
func (e *StoryEntry) ValidateCoordinates() error {
	if (e.Lat == nil) != (e.Lon == nil) {
		return common.ErrPartialCoordinates
	}
	return nil
}

// NewStoryInput is what the submission flow collects from the user before an
// entry exists.
type NewStoryInput struct {
	Title       string
	Description string
	Photo       []byte
	PhotoName   string
	Lat         *float64
	Lon         *float64
}

// Validate checks the input before any network or storage call.
func (in *NewStoryInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return common.ErrMissingTitle
	}
	if strings.TrimSpace(in.Description) == "" {
		return common.ErrMissingDescription
	}
	if len(in.Photo) == 0 {
		return common.ErrMissingPhoto
	}
	if len(in.Photo) > MaxPhotoSize {
		return fmt.Errorf("%w: %d KB (max %d KB)", common.ErrPhotoTooLarge, len(in.Photo)/1024, MaxPhotoSize/1024)
	}
	if (in.Lat == nil) != (in.Lon == nil) {
		return common.ErrPartialCoordinates
	}
	return nil
}
