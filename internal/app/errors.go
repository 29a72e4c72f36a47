package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotConfigured     = errors.New("source url not configured")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSchema            = errors.New("source schema mismatch")
	ErrEmployeeNotFound  = errors.New("employee not found")
)
