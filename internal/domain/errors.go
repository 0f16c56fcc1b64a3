package domain

import "errors"

var (
	// ErrInvalidKey is returned when the caller-supplied secret key is
	// empty or shorter than the minimum length.
	ErrInvalidKey = errors.New("invalid secret key")

	// ErrEnrichmentUnavailable marks an unhealthy or empty enrichment
	// source. It is recovered locally by the resolver and never surfaced.
	ErrEnrichmentUnavailable = errors.New("enrichment source unavailable")

	// ErrNotConfigured is returned when a real trade is attempted without
	// real mode enabled and a venue configured.
	ErrNotConfigured = errors.New("real trading not configured")

	// ErrVenueRejected marks a venue order rejection. It is recovered
	// into a consolation outcome event, surfaced only as narration.
	ErrVenueRejected = errors.New("venue rejected order")

	// ErrInsufficientFunds is returned when a purchase costs more premium
	// currency than the player holds. No state is mutated.
	ErrInsufficientFunds = errors.New("insufficient lumina")
)
