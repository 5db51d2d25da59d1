package entity

import "errors"

var (
	// ErrProspectNotFound is a normal branch for the funnel: a stale or
	// tampered id in a shared link routes the caller back to a fresh
	// session, it is not a server fault.
	ErrProspectNotFound = errors.New("prospect not found")

	ErrFileNotFound = errors.New("file not found on prospect")
)
