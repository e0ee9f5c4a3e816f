package store

import "errors"

var (
	// ErrGlobalNotFound indicates no global state has been stored yet.
	ErrGlobalNotFound = errors.New("store: global state not found")

	// ErrHolderNotFound indicates the identity has no stored record.
	ErrHolderNotFound = errors.New("store: holder not found")

	// ErrDuplicateRound indicates a round with that period index already exists.
	ErrDuplicateRound = errors.New("store: duplicate round")

	// ErrInvalidRecord indicates a record that cannot be keyed.
	ErrInvalidRecord = errors.New("store: invalid record")
)
