package services

import "errors"

// Domain errors surfaced to callers. Handlers map these to HTTP status
// codes; everything else is treated as an internal failure.
var (
	// ErrAccountNotFound means the requested user does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidReferralCode means a code does not resolve to any account.
	ErrInvalidReferralCode = errors.New("invalid referral code")
	// ErrInvalidAmount means an investment amount is non-positive or not finite.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrCodeGenerationExhausted means code generation hit the collision
	// retry bound. Retryable.
	ErrCodeGenerationExhausted = errors.New("unable to generate unique referral code")
	// ErrCircularReferral means a signup would make the new user its own
	// ancestor in the referral graph.
	ErrCircularReferral = errors.New("referral would create a cycle")
	// ErrAlreadyReferred means the user is already attached to a referrer.
	ErrAlreadyReferred = errors.New("user already has a referrer")
)
