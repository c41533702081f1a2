// Package models defines the server-side persistence models.
package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash; the plain
// password never reaches a repository.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Story is a published story. PhotoKey is the object-storage key of the
// uploaded photo; PhotoURL is the public URL served to clients.
type Story struct {
	ID          string
	UserID      string
	AuthorName  string
	Description string
	PhotoKey    string
	PhotoURL    string
	// Lat and Lon are either both set or both nil.
	Lat       *float64
	Lon       *float64
	CreatedAt time.Time
}

// Subscription is a registered push endpoint of a user.
type Subscription struct {
	Endpoint  string
	P256dh    string
	Auth      string
	UserID    string
	CreatedAt time.Time
}
