package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a duel session is not registered.
	ErrSessionNotFound = errors.New("duel session not found")
	// ErrNotInSession is returned when a user acts on a session they are not part of.
	ErrNotInSession = errors.New("user is not part of this duel")
	// ErrNoActiveSession is returned when a connection has no bound session.
	ErrNoActiveSession = errors.New("no active duel session for connection")
	// ErrUserNotFound indicates the user record could not be loaded.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuestionsNotFound indicates no question set exists for a subject/difficulty.
	ErrQuestionsNotFound = errors.New("question set not found")
	// ErrInvalidPayload rejects inbound events with missing required fields.
	ErrInvalidPayload = errors.New("invalid event payload")
)
