package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindAndOptionalReason(t *testing.T) {
	err := PeriodClosed("rab", "202505")

	assert.True(t, errors.Is(err, ErrPeriodClosed))
	assert.True(t, errors.Is(err, &Error{Kind: KindPeriodClosed, Reason: "rab_window_closed"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindPeriodClosed, Reason: "lpj_window_closed"}))
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestKindOfThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("submit rab: %w", PondokNotVerified("p-1"))

	assert.Equal(t, KindPondokNotVerified, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Persistence("insert_rab", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "failed to insert rab", err.Message)
}

func TestErrorString(t *testing.T) {
	err := Validation("pesan_required", "revision message is required",
		FieldError{Field: "pesan", Error: "required"})

	assert.Equal(t, "validation (pesan_required): revision message is required", err.Error())
	e, ok := As(err)
	assert.True(t, ok)
	assert.Len(t, e.Fields, 1)
}
