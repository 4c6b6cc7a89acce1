package domain

import "github.com/pkg/errors"

// Error kinds surfaced by the ledger, registry and allocation engine.
// Callers match them with errors.Is; the API layer maps them to status codes.
var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the operation is not legal in the entity's current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrIncompatible means the compatibility predicate rejected the item for the request.
	ErrIncompatible = errors.New("incompatible")

	// ErrConflict means the caller lost a concurrent reservation race.
	ErrConflict = errors.New("conflict")

	// ErrAlreadyLinked means the request already carries a fulfillment linkage.
	ErrAlreadyLinked = errors.New("already linked")

	// ErrInconsistent is fatal: reservation and fulfillment committed but the final
	// allocation commit failed. Requires manual reconciliation.
	ErrInconsistent = errors.New("inconsistent allocation state")
)
