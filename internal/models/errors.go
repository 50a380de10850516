package models

import "errors"

// Error taxonomy shared across services and the HTTP layer. Validation
// errors are always detected before any mutation; ErrAborted is the one
// class with possibly-unknown persisted state and gets special handling.
var (
	// ErrUnauthorized means no valid principal was resolved.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the principal's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart means checkout was attempted on an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientStock means a cart line's quantity exceeds current stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidPromocode means the supplied code resolves to no promocode.
	ErrInvalidPromocode = errors.New("invalid promocode")
	// ErrPromocodeExpired means the promocode is outside its validity window.
	ErrPromocodeExpired = errors.New("promocode expired")
	// ErrValidation means the input is malformed or violates a domain rule.
	ErrValidation = errors.New("validation failed")
	// ErrAborted means checkout persistence failed with an unknown outcome;
	// the caller must verify whether the order exists before retrying.
	ErrAborted = errors.New("checkout aborted")
)
