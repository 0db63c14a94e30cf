package repository

import "errors"

// Conflict errors raised by the claim ledger. Callers branch with
// errors.Is, so these must stay stable sentinels.
var (
	// ErrItemNotFound: the referenced item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrAlreadyClaimed: the user already holds an active claim on the item.
	ErrAlreadyClaimed = errors.New("already claimed")

	// ErrOwnerCannotClaim: owners may not join their own waitlist.
	ErrOwnerCannotClaim = errors.New("owner cannot claim own item")

	// ErrNoActiveClaim: a removal targeted a claim that is not active.
	ErrNoActiveClaim = errors.New("no active claim")
)
