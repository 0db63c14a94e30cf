package marketplace

import (
	"errors"
	"fmt"

	"github.com/shevett/claimit/internal/repository"
)

// The claim-conflict sentinels are the ledger's own, re-exported so the
// API layer only imports this package; errors.Is matches either name.
var (
	ErrItemNotFound     = repository.ErrItemNotFound
	ErrAlreadyClaimed   = repository.ErrAlreadyClaimed
	ErrOwnerCannotClaim = repository.ErrOwnerCannotClaim
	ErrNoActiveClaim    = repository.ErrNoActiveClaim

	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrCommunityNotFound = errors.New("community not found")
)

// ValidationError rejects bad input before any write, naming the field
// at fault so the presentation layer can render it inline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
