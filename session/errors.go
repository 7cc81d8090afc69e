package session

import "errors"

var (
	// ErrInvalidKey indicates the one-time key does not exist — it was never
	// issued, or it has already been redeemed.
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyExpired indicates the one-time key outlived its expiration window
	// before being redeemed.
	ErrKeyExpired = errors.New("key expired")
	// ErrInvalidSession indicates no session exists for the given secret.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionExpired indicates a valid key was redeemed but its session was
	// removed after the key was issued.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRemoved resolves a parked poll whose session was removed while
	// the wait was outstanding.
	ErrSessionRemoved = errors.New("session removed")
	// ErrSuperseded resolves a parked poll that was pre-empted by a newer poll
	// on the same session.
	ErrSuperseded = errors.New("superseded by a newer poll")
	// ErrFutureRevision indicates a poll asked about a revision the session has
	// not reached — a client protocol violation, answered instead of blocking.
	ErrFutureRevision = errors.New("revision ahead of session")
	// ErrDuplicateName indicates a registration schema repeats an item name.
	ErrDuplicateName = errors.New("duplicate item name")
)
