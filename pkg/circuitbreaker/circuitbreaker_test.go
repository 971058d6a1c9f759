package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(Settings{Name: "test", FailureThreshold: 2, OpenTimeout: time.Minute})
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	calls := 0
	failing := func() error { calls++; return boom }
	ok := func() error { calls++; return nil }

	assert.ErrorIs(t, cb.Execute(failing), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(failing), boom)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(ok), ErrOpen)
	assert.Equal(t, 2, calls)

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 3, calls)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(Settings{FailureThreshold: 1, OpenTimeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, StateOpen, cb.State())
}
