package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReserveErrorIsMatchesByCode(t *testing.T) {
	err := ErrPoolNotInitialized.WithDetails(map[string]any{"pool": "abc"})
	assert.True(t, Is(err, ErrPoolNotInitialized))
	assert.False(t, Is(err, ErrPoolAlreadyInitialized))

	wrapped := fmt.Errorf("add liquidity: %w", err)
	assert.True(t, Is(wrapped, ErrPoolNotInitialized))
	assert.Equal(t, ErrCodePoolNotInitialized, Code(wrapped))
}

func TestWithCauseDoesNotMutateShared(t *testing.T) {
	cause := fmt.Errorf("address in use")
	err := ErrPoolAlreadyInitialized.WithCause(cause)

	assert.Nil(t, ErrPoolAlreadyInitialized.Cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "POOL_ALREADY_INITIALIZED: pool is already initialized: address in use", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.Equal(t, "", Code(fmt.Errorf("plain")))
}
