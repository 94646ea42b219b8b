package emulator

// Bus is the pure address-range dispatcher of spec.md §4.3: it owns one
// DRAM and one instance each of CLINT, PLIC, UART and VirtioBlock, and
// routes every access to exactly one of them by inclusive-exclusive
// range check. No address outside a declared region reaches DRAM.
type Bus struct {
	dram  *DRAM
	clint *CLINT
	plic  *PLIC
	uart  *Uart
	disk  *VirtioBlock
}

func newBus(dramSize uint32, kernel []byte, disk []byte) *Bus {
	dram := newDRAM(DRAMBase, dramSize)
	dram.loadKernel(kernel)
	return &Bus{
		dram:  dram,
		clint: newCLINT(),
		plic:  newPLIC(),
		uart:  newUart(),
		disk:  newVirtioBlock(disk),
	}
}

// DRAM address range, per spec.md §3.
const (
	DRAMBase = 0x8000_0000
)

func (b *Bus) Load(addr uint32, sizeBits uint8) (uint64, *Trap) {
	switch {
	case addr >= clintBase && addr < clintEnd:
		return b.clint.Load(addr, sizeBits)
	case addr >= plicBase && addr < plicEnd:
		return b.plic.Load(addr, sizeBits)
	case addr >= uartBase && addr < uartEnd:
		return b.uart.Load(addr, sizeBits)
	case addr >= virtioBase && addr < virtioEnd:
		return b.disk.Load(addr, sizeBits)
	case addr >= DRAMBase && addr < DRAMBase+uint32(len(b.dram.bytes)):
		return b.dram.loadBySize(addr, sizeBits)
	default:
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
}

func (b *Bus) Store(addr uint32, sizeBits uint8, v uint64) *Trap {
	switch {
	case addr >= clintBase && addr < clintEnd:
		return b.clint.Store(addr, sizeBits, v)
	case addr >= plicBase && addr < plicEnd:
		return b.plic.Store(addr, sizeBits, v)
	case addr >= uartBase && addr < uartEnd:
		return b.uart.Store(addr, sizeBits, v)
	case addr >= virtioBase && addr < virtioEnd:
		return b.disk.Store(addr, sizeBits, v)
	case addr >= DRAMBase && addr < DRAMBase+uint32(len(b.dram.bytes)):
		return b.dram.storeBySize(addr, sizeBits, v)
	default:
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
}

// loadBySize/storeBySize adapt DRAM's typed accessors to the Bus's
// uniform (addr, sizeBits) contract shared by every device.
func (d *DRAM) loadBySize(addr uint32, sizeBits uint8) (uint64, *Trap) {
	switch sizeBits {
	case 8:
		v, t := d.Load8(addr)
		return uint64(v), t
	case 16:
		v, t := d.Load16(addr)
		return uint64(v), t
	case 32:
		v, t := d.Load32(addr)
		return uint64(v), t
	case 64:
		return d.Load64(addr)
	default:
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
}

func (d *DRAM) storeBySize(addr uint32, sizeBits uint8, v uint64) *Trap {
	switch sizeBits {
	case 8:
		return d.Store8(addr, uint8(v))
	case 16:
		return d.Store16(addr, uint16(v))
	case 32:
		return d.Store32(addr, uint32(v))
	case 64:
		return d.Store64(addr, v)
	default:
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
}
