// Package common contains shared constants and sentinel errors used across
// bookkeeper components.
package common

// RefreshTokenCookieName is the cookie carrying the refresh token. The token
// is never written to a response body.
const RefreshTokenCookieName = "refreshToken"

// AuthorizationHeaderName carries the access token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"
