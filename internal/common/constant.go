// Package common contains shared constants and sentinel errors used across
// Narratlas components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token value in the Authorization header.
const BearerPrefix = "Bearer "
