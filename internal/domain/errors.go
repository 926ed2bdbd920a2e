package domain

import (
	"errors"
	"fmt"
)

// ReasonCode is the closed vocabulary of failure reasons shared by every backend
// and carried on the wire.
type ReasonCode string

const (
	ReasonAlreadyClaimed       ReasonCode = "already_claimed"
	ReasonAlreadyClaimedToday  ReasonCode = "already_claimed_today"
	ReasonNotAvailableYet      ReasonCode = "not_available_yet"
	ReasonInsufficientCurrency ReasonCode = "insufficient_currency"
	ReasonInvalidCredentials   ReasonCode = "invalid_credentials"
	ReasonGenericError         ReasonCode = "generic_error"
	ReasonMaxLevel             ReasonCode = "max_level"
)

// ReasonCodes lists every valid reason code.
var ReasonCodes = []ReasonCode{
	ReasonAlreadyClaimed,
	ReasonAlreadyClaimedToday,
	ReasonNotAvailableYet,
	ReasonInsufficientCurrency,
	ReasonInvalidCredentials,
	ReasonGenericError,
	ReasonMaxLevel,
}

// Valid reports whether r belongs to the closed vocabulary.
func (r ReasonCode) Valid() bool {
	for _, c := range ReasonCodes {
		if c == r {
			return true
		}
	}
	return false
}

// ErrorKind classifies a failure by how the caller should react to it.
type ErrorKind int

const (
	// KindUnspecified only appears on sentinels; it matches any kind in errors.Is.
	KindUnspecified ErrorKind = iota
	// KindValidation is a local pre-check failure. No network call was made.
	KindValidation
	// KindConflict is a remote rejection (already claimed, lost race). Terminal.
	KindConflict
	// KindInsufficientResource is a currency shortfall. Terminal.
	KindInsufficientResource
	// KindTransport is a network or serialization failure. Retryable.
	KindTransport
	// KindUnauthenticated means the session must be re-established before retrying.
	KindUnauthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindTransport:
		return "transport"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unspecified"
	}
}

// Error message string constants - single source of truth for error messages
const (
	ErrMsgOutOfRange         = "claim index out of range"
	ErrMsgUnknownTrack       = "unknown reward track"
	ErrMsgRewardMismatch     = "reward does not match catalog"
	ErrMsgInvalidReward      = "invalid reward descriptor"
	ErrMsgNegativeAmount     = "amount must not be negative"
	ErrMsgExpOverflow        = "exp pool would overflow"
	ErrMsgUnknownCoupon      = "unknown coupon code"
	ErrMsgUnknownOffer       = "unknown offer"
	ErrMsgUnknownItem        = "inventory item not found"
	ErrMsgInvalidStatIndex   = "invalid stat index"
	ErrMsgPremiumRequired    = "premium battle pass required"
	ErrMsgIndexOutOfBounds   = "index exceeds claimed set bound"
	ErrMsgClaimInFlight      = "claim already in flight"
	ErrMsgAccountNotFound    = "account not found"
	ErrMsgAccountMismatch    = "session does not match account"
	ErrMsgPremiumUnlocked    = "premium already unlocked"
	ErrMsgUnknownQuest       = "unknown quest"
	ErrMsgUnsupportedPart    = "unsupported substructure"
	ErrMsgTxClosed           = "tx is closed"
	ErrMsgDatabaseError      = "database error"
	ErrMsgTransportError     = "transport error"
	ErrMsgUnauthenticated    = "unauthenticated"
	ErrMsgStorageVersionLost = "storage version conflict"
)

// Cause errors. These are wrapped inside *Error to give detail beyond the reason code.
var (
	ErrOutOfRange         = errors.New(ErrMsgOutOfRange)
	ErrUnknownTrack       = errors.New(ErrMsgUnknownTrack)
	ErrRewardMismatch     = errors.New(ErrMsgRewardMismatch)
	ErrInvalidReward      = errors.New(ErrMsgInvalidReward)
	ErrNegativeAmount     = errors.New(ErrMsgNegativeAmount)
	ErrExpOverflow        = errors.New(ErrMsgExpOverflow)
	ErrUnknownCoupon      = errors.New(ErrMsgUnknownCoupon)
	ErrUnknownOffer       = errors.New(ErrMsgUnknownOffer)
	ErrUnknownItem        = errors.New(ErrMsgUnknownItem)
	ErrInvalidStatIndex   = errors.New(ErrMsgInvalidStatIndex)
	ErrPremiumRequired    = errors.New(ErrMsgPremiumRequired)
	ErrIndexOutOfBounds   = errors.New(ErrMsgIndexOutOfBounds)
	ErrClaimInFlight      = errors.New(ErrMsgClaimInFlight)
	ErrAccountNotFound    = errors.New(ErrMsgAccountNotFound)
	ErrAccountMismatch    = errors.New(ErrMsgAccountMismatch)
	ErrPremiumUnlocked    = errors.New(ErrMsgPremiumUnlocked)
	ErrUnknownQuest       = errors.New(ErrMsgUnknownQuest)
	ErrUnsupportedPart    = errors.New(ErrMsgUnsupportedPart)
	ErrStorageVersionLost = errors.New(ErrMsgStorageVersionLost)
)

// Reason sentinels. errors.Is matches any *Error with the same reason regardless of kind,
// so a local AlreadyClaimed and a remote AlreadyClaimed both satisfy ErrAlreadyClaimed.
var (
	ErrAlreadyClaimed       = &Error{Reason: ReasonAlreadyClaimed}
	ErrAlreadyClaimedToday  = &Error{Reason: ReasonAlreadyClaimedToday}
	ErrNotAvailableYet      = &Error{Reason: ReasonNotAvailableYet}
	ErrInsufficientCurrency = &Error{Reason: ReasonInsufficientCurrency}
	ErrInvalidCredentials   = &Error{Reason: ReasonInvalidCredentials}
	ErrGeneric              = &Error{Reason: ReasonGenericError}
	ErrMaxLevel             = &Error{Reason: ReasonMaxLevel}
)

// Error is the tagged failure type returned by every ledger operation.
type Error struct {
	Kind   ErrorKind
	Reason ReasonCode
	Op     string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Reason)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match by reason, and by kind when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != "" && t.Reason != e.Reason {
		return false
	}
	return t.Kind == KindUnspecified || t.Kind == e.Kind
}

// NewError builds a tagged error.
func NewError(kind ErrorKind, reason ReasonCode, op string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Op: op, Err: cause}
}

// Validation wraps a local pre-check failure.
func Validation(op string, reason ReasonCode, cause error) *Error {
	return NewError(KindValidation, reason, op, cause)
}

// Conflict wraps a remote rule rejection.
func Conflict(op string, reason ReasonCode, cause error) *Error {
	return NewError(KindConflict, reason, op, cause)
}

// Transport wraps a network, storage or serialization failure.
func Transport(op string, cause error) *Error {
	return NewError(KindTransport, ReasonGenericError, op, cause)
}

// Unauthenticated wraps a missing or invalid session.
func Unauthenticated(op string, cause error) *Error {
	return NewError(KindUnauthenticated, ReasonInvalidCredentials, op, cause)
}

// KindForReason is the kind a remote rejection with the given reason is reported as.
func KindForReason(reason ReasonCode) ErrorKind {
	switch reason {
	case ReasonAlreadyClaimed, ReasonAlreadyClaimedToday, ReasonNotAvailableYet, ReasonMaxLevel:
		return KindConflict
	case ReasonInsufficientCurrency:
		return KindInsufficientResource
	case ReasonInvalidCredentials:
		return KindUnauthenticated
	default:
		return KindValidation
	}
}

// FromReason rebuilds a tagged error from a wire reason code.
func FromReason(op string, reason ReasonCode) *Error {
	if !reason.Valid() {
		reason = ReasonGenericError
	}
	return NewError(KindForReason(reason), reason, op, nil)
}

// AsError extracts the tagged error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err; untagged errors count as transport failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnspecified
	}
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindTransport
}

// ReasonOf returns the reason code of err; untagged errors report generic_error.
func ReasonOf(err error) ReasonCode {
	if e, ok := AsError(err); ok {
		return e.Reason
	}
	return ReasonGenericError
}

// IsRetryable reports whether err is safe and useful to retry. Only transport
// failures qualify; every claim is idempotent on its key so a retry never double-grants.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransport
}
