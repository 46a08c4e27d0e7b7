package core

import "errors"

// Session errors
var (
	ErrNoCredentials  = errors.New("no stored credentials")
	ErrNotInitialized = errors.New("session not initialized")
	ErrTokenRequired  = errors.New("token is required")
	ErrInvalidToken   = errors.New("invalid session token") // 401
)

// Tier engine errors
var (
	ErrUserIDRequired   = errors.New("user id is required")
	ErrMonitorActive    = errors.New("tier monitoring already active for a user")
	ErrMonitorNotActive = errors.New("tier monitoring not started")
	ErrMonitorClosed    = errors.New("tier monitor cleaned up")
	ErrCacheNotFound    = errors.New("tier data not found in cache")
)

// Validation errors (client input)
var (
	ErrEmailRequired    = errors.New("email is required")    // 400
	ErrPasswordRequired = errors.New("password is required") // 400
)

// Config errors
var (
	ErrBackendRequired = errors.New("backend client is required")
	ErrSecretRequired  = errors.New("secret is required")
	ErrSecretTooShort  = errors.New("secret too short")
)
