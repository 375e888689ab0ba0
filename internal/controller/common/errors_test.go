package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Freeeeeet/booking_bot/internal/controller/wizard"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage_Wrapped(t *testing.T) {
	err := fmt.Errorf("create reservation: %w", service.ErrSlotTaken)
	assert.Contains(t, ErrorMessage(err), "уже занято")
	assert.True(t, IsUserError(err))

	assert.Contains(t, ErrorMessage(service.ErrSlotUnavailable), "больше недоступно")
	assert.Contains(t, ErrorMessage(wizard.ErrInvalidPhone), "телефона")
	assert.False(t, IsUserError(errors.New("disk on fire")))
	assert.Equal(t, ErrorMessage(nil), ErrorMessage(errors.New("boom")))
}

func TestParseIDFromCallback(t *testing.T) {
	id, err := ParseIDFromCallback("bk:cancel:123", "bk:cancel:")
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	_, err = ParseIDFromCallback("bk:cancel:x", "bk:cancel:")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseIDFromCallback("other:1", "bk:cancel:")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseIDFromCallback("bk:cancel:-4", "bk:cancel:")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
