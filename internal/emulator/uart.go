package emulator

import "sync"

// UART register offsets from uartBase, per spec.md §6.
const (
	uartBase = 0x1000_0000
	uartEnd  = 0x1000_0100

	uartRHRTHR = uartBase + 0
	uartIER    = uartBase + 1
	uartIIR    = uartBase + 2 // FCR on write
	uartLCR    = uartBase + 3
	uartMCR    = uartBase + 4
	uartLSR    = uartBase + 5
	uartMSR    = uartBase + 6
	uartSCR    = uartBase + 7
)

const (
	ierRxEnable  uint8 = 0x01
	ierThrEnable uint8 = 0x02

	iirThrEmpty    uint8 = 0x02
	iirRxAvailable uint8 = 0x04
	iirNoInterrupt uint8 = 0x07

	lsrRxReady   uint8 = 0x01
	lsrThrEmpty  uint8 = 0x20
	lcrDLABBit   uint8 = 0x80
)

// Uart models the subset of a 16550A needed for an xv6-class console:
// one-byte RX/TX holding registers, IER/IIR for interrupt shaping, and
// LSR status bits. spec.md §9 resolves the teacher's "unconditionally
// fault" placeholder and the "toggles on read" IsInterrupting bug: the
// full register file is implemented, and IsInterrupting is single-shot
// (return-and-clear).
//
// rx is touched by the host terminal collaborator (PushByte) from a
// different goroutine than the step loop; mu guards exactly that one
// cross-goroutine boundary, per spec.md §5.
type Uart struct {
	mu sync.Mutex

	rhr uint8
	thr uint8
	ier uint8
	lcr uint8
	mcr uint8
	scr uint8

	rxReady bool
	txEmpty bool

	interrupting bool

	onOutput func(byte)
}

func newUart() *Uart {
	return &Uart{txEmpty: true}
}

// PushByte is the host hook documented in spec.md §6: the terminal
// collaborator writes a byte into RHR and the interrupt line follows.
func (u *Uart) PushByte(b byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rhr = b
	u.rxReady = true
	if u.ier&ierRxEnable != 0 {
		u.interrupting = true
	}
}

// OnOutput registers the callback invoked synchronously whenever the
// guest writes to THR, i.e. "the host reads the byte written to UART
// THR" per spec.md §6.
func (u *Uart) OnOutput(fn func(byte)) {
	u.onOutput = fn
}

// IsInterrupting returns the current interrupt-line state and clears
// it, per spec.md §9's single-shot resolution of the source's toggle
// bug.
func (u *Uart) IsInterrupting() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	v := u.interrupting
	u.interrupting = false
	return v
}

func (u *Uart) dlab() bool { return u.lcr&lcrDLABBit != 0 }

func (u *Uart) lsr() uint8 {
	v := lsrThrEmpty // always report TX-empty, per spec.md §4.2
	if u.rxReady {
		v |= lsrRxReady
	}
	return v
}

func (u *Uart) iir() uint8 {
	switch {
	case u.ier&ierRxEnable != 0 && u.rxReady:
		return iirRxAvailable
	case u.ier&ierThrEnable != 0 && u.txEmpty:
		return iirThrEmpty
	default:
		return iirNoInterrupt
	}
}

func (u *Uart) Load(addr uint32, sizeBits uint8) (uint64, *Trap) {
	if sizeBits != 8 {
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	switch addr {
	case uartRHRTHR:
		if u.dlab() {
			return 0, nil
		}
		v := u.rhr
		u.rhr = 0
		u.rxReady = false
		return uint64(v), nil
	case uartIER:
		if u.dlab() {
			return 0, nil
		}
		return uint64(u.ier), nil
	case uartIIR:
		return uint64(u.iir()), nil
	case uartLCR:
		return uint64(u.lcr), nil
	case uartMCR:
		return uint64(u.mcr), nil
	case uartLSR:
		return uint64(u.lsr()), nil
	case uartMSR:
		return 0, nil
	case uartSCR:
		return uint64(u.scr), nil
	default:
		return 0, nil
	}
}

func (u *Uart) Store(addr uint32, sizeBits uint8, v uint64) *Trap {
	if sizeBits != 8 {
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
	u.mu.Lock()
	byteVal := uint8(v)
	switch addr {
	case uartRHRTHR:
		if !u.dlab() {
			u.thr = byteVal
			u.txEmpty = false
			u.mu.Unlock()
			if fn := u.onOutput; fn != nil {
				fn(byteVal)
			}
			u.mu.Lock()
			u.txEmpty = true
			if u.ier&ierThrEnable != 0 {
				u.interrupting = true
			}
		}
	case uartIER:
		if !u.dlab() {
			u.ier = byteVal
		}
	case uartIIR: // FCR: no FIFO to control, accept and ignore
	case uartLCR:
		u.lcr = byteVal
	case uartMCR:
		u.mcr = byteVal
	case uartSCR:
		u.scr = byteVal
	}
	u.mu.Unlock()
	return nil
}
