package emulator

// Machine is the single hart this core models: the X-register file,
// PC, privilege mode, CSR file (with its paging cache), and the Bus it
// owns exclusively, per spec.md §3. No part of Machine is touched by
// any goroutine other than the one calling Step, except through the
// Uart's documented host hooks (spec.md §5).
type Machine struct {
	x    [32]uint32
	pc   uint32
	priv Privilege
	csr  csrFile
	bus  *Bus

	reservationSet bool
	reservation    uint32

	count uint64
}

// NewMachine constructs a hart with DRAM sized dramSize, the kernel
// image copied verbatim to DRAM_BASE, and disk backing the virtio-blk
// device, per spec.md §3/§6.
func NewMachine(kernel []byte, disk []byte, dramSize uint32) *Machine {
	if dramSize == 0 {
		dramSize = DefaultDRAMSize
	}
	m := &Machine{
		pc:   DRAMBase,
		priv: MachineMode,
		bus:  newBus(dramSize, kernel, disk),
	}
	m.x[2] = DRAMBase + dramSize
	return m
}

// Uart exposes the host hooks spec.md §6 documents: PushByte for
// guest-bound input, OnOutput for guest-produced output.
func (m *Machine) Uart() *Uart { return m.bus.uart }

// Step runs the fetch/decode/execute/trap/interrupt cycle of spec.md
// §4.8 exactly once. halted reports whether the step loop should stop
// calling Step (a fatal trap was taken); trap is the trap that was
// taken this step, if any (fatal or not), for the host to log.
func (cpu *Machine) Step() (halted bool, trap *Trap) {
	addr := cpu.pc

	physAddr, t := cpu.translate(cpu.pc, AccessInstruction)
	var insn uint32
	if t == nil {
		raw, lt := cpu.bus.Load(physAddr, 32)
		insn = uint32(raw)
		if lt != nil {
			// The bus only knows load/store fault kinds; a failed fetch
			// is always an instruction access fault regardless of which
			// one it reports.
			t = exceptionTrap(CauseInstructionAccessFault, cpu.pc)
		}
	}

	if t != nil {
		cpu.take(t, addr)
		cpu.tickDevices()
		return t.fatal(), t
	}

	cpu.pc += 4
	if execTrap := cpu.exec(insn, addr); execTrap != nil {
		cpu.take(execTrap, addr)
		cpu.tickDevices()
		return execTrap.fatal(), execTrap
	}
	cpu.x[0] = 0

	cpu.tickDevices()

	if pending := cpu.checkPendingInterrupt(); pending != nil {
		cpu.take(pending, cpu.pc)
		return false, pending
	}

	cpu.count++
	return false, nil
}

// tickDevices advances the clock-driven devices once per step, per
// spec.md §3's note that CLINT's mtime may tick once per step.
func (cpu *Machine) tickDevices() {
	cpu.bus.clint.tick()
	if cpu.bus.clint.timerPending() {
		cpu.csr.raw[MIP] |= mipMTIP
	} else {
		cpu.csr.raw[MIP] &^= mipMTIP
	}
}

func (cpu *Machine) getMPP() Privilege {
	return Privilege((cpu.csr.raw[MSTATUS] >> 11) & 0b11)
}

func (cpu *Machine) setMPP(p Privilege) {
	cpu.csr.raw[MSTATUS] = (cpu.csr.raw[MSTATUS] &^ mstatusMPP) | (uint32(p)&0b11)<<11
}

func (cpu *Machine) getMPIE() uint32 {
	return (cpu.csr.raw[MSTATUS] >> 7) & 1
}

func (cpu *Machine) setMIE(v uint32) {
	cpu.csr.raw[MSTATUS] = (cpu.csr.raw[MSTATUS] &^ mstatusMIE) | (v&1)<<3
}

func (cpu *Machine) setMPIE(v uint32) {
	cpu.csr.raw[MSTATUS] = (cpu.csr.raw[MSTATUS] &^ mstatusMPIE) | (v&1)<<7
}

func (cpu *Machine) getSPP() Privilege {
	if cpu.csr.raw[SSTATUS]&sstatusSPP != 0 {
		return Supervisor
	}
	return User
}

func (cpu *Machine) getSPIE() uint32 {
	return (cpu.csr.raw[SSTATUS] >> 5) & 1
}

func (cpu *Machine) setSIE(v uint32) {
	cpu.csr.raw[SSTATUS] = (cpu.csr.raw[SSTATUS] &^ sstatusSIE) | (v&1)<<1
}

func (cpu *Machine) setSPIE(v uint32) {
	cpu.csr.raw[SSTATUS] = (cpu.csr.raw[SSTATUS] &^ sstatusSPIE) | (v&1)<<5
}

func (cpu *Machine) setSPP(p Privilege) {
	if p == User {
		cpu.csr.raw[SSTATUS] &^= sstatusSPP
	} else {
		cpu.csr.raw[SSTATUS] |= sstatusSPP
	}
}
