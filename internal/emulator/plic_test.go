package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPLICAssertRequiresEnableAndPriority(t *testing.T) {
	p := newPLIC()

	assert.False(t, p.assert(uartIRQ), "disabled IRQ must not be deliverable")

	p.Store(plicSEnable, 32, 1<<uartIRQ)
	p.Store(plicBase+uartIRQ*4, 32, 5)
	p.Store(plicSPriority, 32, 1) // threshold

	assert.True(t, p.assert(uartIRQ))
}

func TestPLICClaimAndComplete(t *testing.T) {
	p := newPLIC()
	p.Store(plicSEnable, 32, 1<<uartIRQ)
	p.assert(uartIRQ)

	v, trap := p.Load(plicSClaim, 32)
	assert.Nil(t, trap)
	assert.Equal(t, uint64(uartIRQ), v)

	// Pending bit clears on claim.
	pending, _ := p.Load(plicPending, 32)
	assert.Equal(t, uint64(0), pending&(1<<uartIRQ))

	p.Store(plicSClaim, 32, uartIRQ)
	assert.Equal(t, uint32(0), p.claim)
}
