package domain

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyClaimed    = errors.New("order already taken")
	ErrStaleOrder        = errors.New("order was modified concurrently")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrNotFound          = errors.New("not found")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrUnauthenticated   = errors.New("unauthenticated")
)
