package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesReasonAcrossKinds(t *testing.T) {
	local := Validation("claim_daily", ReasonAlreadyClaimed, nil)
	remote := Conflict("claim_daily", ReasonAlreadyClaimed, nil)

	assert.ErrorIs(t, local, ErrAlreadyClaimed)
	assert.ErrorIs(t, remote, ErrAlreadyClaimed)
	assert.NotErrorIs(t, remote, ErrAlreadyClaimedToday)

	assert.ErrorIs(t, remote, &Error{Kind: KindConflict, Reason: ReasonAlreadyClaimed})
	assert.NotErrorIs(t, local, &Error{Kind: KindConflict, Reason: ReasonAlreadyClaimed})
}

func TestError_UnwrapsCause(t *testing.T) {
	err := Validation("claim_daily", ReasonGenericError, fmt.Errorf("%w: 9", ErrOutOfRange))
	wrapped := fmt.Errorf("outer: %w", err)

	assert.ErrorIs(t, wrapped, ErrOutOfRange)
	assert.ErrorIs(t, wrapped, ErrGeneric)
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, "claim_daily: generic_error: claim index out of range: 9", err.Error())
}

func TestKindForReason(t *testing.T) {
	tests := []struct {
		reason ReasonCode
		want   ErrorKind
	}{
		{ReasonAlreadyClaimed, KindConflict},
		{ReasonAlreadyClaimedToday, KindConflict},
		{ReasonNotAvailableYet, KindConflict},
		{ReasonMaxLevel, KindConflict},
		{ReasonInsufficientCurrency, KindInsufficientResource},
		{ReasonInvalidCredentials, KindUnauthenticated},
		{ReasonGenericError, KindValidation},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForReason(tt.reason))
		})
	}
}

func TestFromReason_UnknownCollapsesToGeneric(t *testing.T) {
	err := FromReason("op", ReasonCode("0"))
	assert.Equal(t, ReasonGenericError, err.Reason)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transport("op", errors.New("reset"))))
	assert.True(t, IsRetryable(errors.New("untagged")))
	assert.False(t, IsRetryable(Conflict("op", ReasonAlreadyClaimed, nil)))
	assert.False(t, IsRetryable(Unauthenticated("op", nil)))
	assert.False(t, IsRetryable(nil))
}
