package order

import "errors"

// Validation and lifecycle errors. All are local and final: none are
// retried. ErrDuplicateOrder and ErrOverfillAttempt signal corrupted
// registry state rather than bad input; callers should treat them as
// fatal to the registry instance.
var (
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidPrice        = errors.New("limit price must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmptyBook           = errors.New("no opposing liquidity")
	ErrDuplicateOrder      = errors.New("duplicate order id")
	ErrUnknownOrder        = errors.New("unknown order")
	ErrOverfillAttempt     = errors.New("fill exceeds remaining quantity")
	ErrNotCancellable      = errors.New("order not cancellable")
)
