package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSMTP = errors.New("smtp caido")

func nuevoCB(t *testing.T, reloj *time.Time, cambios *[]CBState) *CircuitBreaker {
	t.Helper()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
		OnStateChange:    func(_, to CBState) { *cambios = append(*cambios, to) },
	})
	cb.now = func() time.Time { return *reloj }
	return cb
}

func TestCircuitBreaker_AbreTrasFallosConsecutivos(t *testing.T) {
	reloj := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var cambios []CBState
	cb := nuevoCB(t, &reloj, &cambios)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errSMTP }), errSMTP)
	}
	assert.Equal(t, CBOpen, cb.State())

	llamado := false
	err := cb.Execute(func() error { llamado = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, llamado)
	assert.Equal(t, []CBState{CBOpen}, cambios)
}

func TestCircuitBreaker_ExitoReiniciaContador(t *testing.T) {
	reloj := time.Now()
	var cambios []CBState
	cb := nuevoCB(t, &reloj, &cambios)

	_ = cb.Execute(func() error { return errSMTP })
	_ = cb.Execute(func() error { return errSMTP })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errSMTP })

	assert.Equal(t, CBClosed, cb.State())
	assert.Empty(t, cambios)
}

func TestCircuitBreaker_SemiAbiertoSeCierraConExitos(t *testing.T) {
	reloj := time.Now()
	var cambios []CBState
	cb := nuevoCB(t, &reloj, &cambios)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errSMTP })
	}
	reloj = reloj.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
	assert.Equal(t, []CBState{CBOpen, CBHalfOpen, CBClosed}, cambios)
}

func TestCircuitBreaker_SemiAbiertoReabreConUnFallo(t *testing.T) {
	reloj := time.Now()
	var cambios []CBState
	cb := nuevoCB(t, &reloj, &cambios)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errSMTP })
	}
	reloj = reloj.Add(2 * time.Minute)
	_ = cb.Execute(func() error { return errSMTP })

	assert.Equal(t, CBOpen, cb.State())
}

func TestCBState_String(t *testing.T) {
	assert.Equal(t, "closed", CBClosed.String())
	assert.Equal(t, "open", CBOpen.String())
	assert.Equal(t, "half-open", CBHalfOpen.String())
	assert.Equal(t, "unknown", CBState(9).String())
}
