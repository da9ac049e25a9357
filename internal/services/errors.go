package services

import "errors"

// User-facing errors. Handlers map these to 4xx responses.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrRoundClosed        = errors.New("round is closed for bets")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrDisplayNameTaken   = errors.New("display name is already taken")
	ErrInvalidName        = errors.New("display name must be 2 to 32 characters")
	ErrInvalidPhase       = errors.New("operation not allowed in the current phase")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMockLoginDisabled  = errors.New("mock login is disabled")
	ErrPromoNotFound      = errors.New("promo code not found")
	ErrPromoInactive      = errors.New("promo code is not active")
	ErrPromoAlreadyUsed   = errors.New("promo code already redeemed by this account")
	ErrPromoExhausted     = errors.New("promo code has reached its usage limit")
	ErrPromoExists        = errors.New("promo code already exists")
)

// Integrity errors. These should be unreachable; every occurrence is logged at error level.
var (
	ErrUnknownAccount      = errors.New("unknown account")
	ErrEmptyRound          = errors.New("draw invoked on an empty round")
	ErrDuplicateSettlement = errors.New("round already settled")
	ErrPayoutFailed        = errors.New("payout failed")
	ErrSettlementHalted    = errors.New("settlement halted; new rounds blocked")
)
