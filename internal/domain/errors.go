package domain

import "errors"

// ErrorKind groups domain failures by how the caller should react to them.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindStateConflict       ErrorKind = "state_conflict"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
)

// Error is an expected, recoverable rule violation. Reason is stable and
// machine-readable; Message is meant for people.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func newError(kind ErrorKind, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg}
}

var (
	ErrAccountNotFound = newError(KindNotFound, "account_not_found", "user not found")
	ErrItemNotFound    = newError(KindNotFound, "item_not_found", "item not found")

	ErrInvalidIdentity    = newError(KindInvalidInput, "invalid_identity", "telegram_id is required")
	ErrInvalidAmount      = newError(KindInvalidInput, "invalid_amount", "amount must be positive with at most 2 decimals")
	ErrInvalidUpgradeType = newError(KindInvalidInput, "invalid_upgrade_type", "unknown upgrade type")
	ErrSelfTransfer       = newError(KindInvalidInput, "self_transfer", "cannot send to yourself")

	ErrAlreadyLocked     = newError(KindStateConflict, "already_locked", "mining already in progress")
	ErrClaimPending      = newError(KindStateConflict, "claim_pending", "claim your reward first")
	ErrNothingToClaim    = newError(KindStateConflict, "nothing_to_claim", "nothing to claim")
	ErrMiningNotFinished = newError(KindStateConflict, "mining_not_finished", "mining not finished")
	ErrAlreadyOwned      = newError(KindStateConflict, "already_owned", "already owned")

	ErrInsufficientBalance = newError(KindInsufficientBalance, "insufficient_balance", "not enough balance")
)

// AsError unwraps err into a domain error if it is one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) && de != nil {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsError(err)
	return ok && de.Kind == kind
}
