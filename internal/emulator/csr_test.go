package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSRRoundTrip(t *testing.T) {
	c := newCSRFile()
	c.write(MSCRATCH, 0x12345678)
	assert.Equal(t, uint32(0x12345678), c.read(MSCRATCH))
}

func TestCSRSieReflectsMieAndMideleg(t *testing.T) {
	c := newCSRFile()
	c.write(MIDELEG, 0b0000_0010_0010) // delegate SSIP and STIP
	c.write(MIE, 0b0000_0010_1010)     // MIE bits set for SSIP, STIP, and MSIP

	assert.Equal(t, c.raw[MIE]&c.raw[MIDELEG], c.read(SIE))
}

func TestCSRWriteSieOnlyTouchesDelegatedBits(t *testing.T) {
	c := newCSRFile()
	c.write(MIDELEG, mipSSIP)
	c.write(MIE, mipSTIP) // pre-existing, non-delegated bit

	c.write(SIE, mipSSIP|mipSTIP) // guest tries to also set STIP through sie

	assert.NotEqual(t, uint32(0), c.raw[MIE]&mipSSIP, "delegated bit should have been set")
	assert.NotEqual(t, uint32(0), c.raw[MIE]&mipSTIP, "pre-existing non-delegated bit should survive")
}

func TestCSRSatpModeGatesEnablePaging(t *testing.T) {
	c := newCSRFile()

	c.write(SATP, 0x1234) // mode field 0 (Bare)
	assert.False(t, c.enablePaging)

	ppn := uint32(0x5678)
	c.write(SATP, uint32(Sv39)<<28|ppn)
	assert.True(t, c.enablePaging)
	assert.Equal(t, ppn*pageSize, c.pageTableRoot)
}
