package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUartPushByteMakesRHRReadable(t *testing.T) {
	u := newUart()
	u.Store(uartIER, 8, uint64(ierRxEnable))

	u.PushByte('x')

	v, trap := u.Load(uartRHRTHR, 8)
	assert.Nil(t, trap)
	assert.Equal(t, uint64('x'), v)
}

func TestUartIsInterruptingSingleShot(t *testing.T) {
	u := newUart()
	u.Store(uartIER, 8, uint64(ierRxEnable))
	u.PushByte('y')

	assert.True(t, u.IsInterrupting())
	assert.False(t, u.IsInterrupting(), "second call must observe the already-cleared flag")
}

func TestUartStoreToTHRInvokesOnOutput(t *testing.T) {
	u := newUart()
	var got []byte
	u.OnOutput(func(b byte) { got = append(got, b) })

	u.Store(uartRHRTHR, 8, uint64('h'))
	u.Store(uartRHRTHR, 8, uint64('i'))

	assert.Equal(t, []byte("hi"), got)
}

func TestUartWrongSizeFaults(t *testing.T) {
	u := newUart()
	_, trap := u.Load(uartLSR, 16)
	assert.NotNil(t, trap)
	assert.Equal(t, CauseLoadAccessFault, trap.Cause)
}
