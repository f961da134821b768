// Package common contains shared constants and sentinel errors used across
// the accounts service components.
package common

// AuthorizationHeaderName carries the access token on inbound HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// DisplayIDPrefix is the default prefix of human-facing account identifiers.
const DisplayIDPrefix = "STZ"
