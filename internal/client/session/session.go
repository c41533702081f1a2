// Package session holds the authenticated user's identity for the client:
// the bearer token plus the user id and display name the server returned at
// login. Consumers receive it as an injected capability instead of reading a
// process-wide global, so tests can substitute doubles.
package session

// Provider is the session capability consumed by the gateway, the sync
// engine, and the submission flow.
type Provider interface {
	// Token returns the bearer token, or "" when not logged in.
	Token() string
	// SaveToken persists the bearer token.
	SaveToken(token string) error
	// ClearToken forgets the token.
	ClearToken() error

	// UserID returns the server-assigned id of the logged-in user, or "".
	UserID() string
	// UserName returns the display name of the logged-in user, or "".
	UserName() string
	// SaveUser persists the user identity.
	SaveUser(id, name string) error
	// ClearUser forgets the user identity.
	ClearUser() error
}
