package emulator

// DRAM is the flat little-endian byte array backing guest physical
// memory, per spec.md §4.1. Addresses passed to the accessors are
// absolute; the accessors subtract Base before indexing.
type DRAM struct {
	Base  uint32
	bytes []byte
}

// DefaultDRAMSize is the 128 MiB default spec.md §3 names for the Bus's
// DRAM instance.
const DefaultDRAMSize = 128 * 1024 * 1024

func newDRAM(base uint32, size uint32) *DRAM {
	return &DRAM{Base: base, bytes: make([]byte, size)}
}

// loadKernel copies image verbatim starting at offset 0, per spec.md
// §6 ("copied verbatim into DRAM starting at DRAM_BASE, truncated/padded
// to DRAM_SIZE"). Any bytes past len(image) are left zero.
func (d *DRAM) loadKernel(image []byte) {
	n := copy(d.bytes, image)
	for i := n; i < len(d.bytes); i++ {
		d.bytes[i] = 0
	}
}

func (d *DRAM) inRange(addr uint32, nbytes uint32) bool {
	off := addr - d.Base
	return addr >= d.Base && uint64(off)+uint64(nbytes) <= uint64(len(d.bytes))
}

func (d *DRAM) Load8(addr uint32) (uint8, *Trap) {
	if !d.inRange(addr, 1) {
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
	return d.bytes[addr-d.Base], nil
}

func (d *DRAM) Load16(addr uint32) (uint16, *Trap) {
	if !d.inRange(addr, 2) {
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
	off := addr - d.Base
	return uint16(d.bytes[off]) | uint16(d.bytes[off+1])<<8, nil
}

func (d *DRAM) Load32(addr uint32) (uint32, *Trap) {
	if !d.inRange(addr, 4) {
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
	off := addr - d.Base
	return uint32(d.bytes[off]) | uint32(d.bytes[off+1])<<8 |
		uint32(d.bytes[off+2])<<16 | uint32(d.bytes[off+3])<<24, nil
}

// Load64 supports the MMU's 64-bit PTE fetch (spec.md §4.5 step 2). No
// RV32IMA opcode reaches this path directly — see SPEC_FULL.md §4.1-4.9.
func (d *DRAM) Load64(addr uint32) (uint64, *Trap) {
	if !d.inRange(addr, 8) {
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
	lo, _ := d.Load32(addr)
	hi, _ := d.Load32(addr + 4)
	return uint64(lo) | uint64(hi)<<32, nil
}

func (d *DRAM) Store8(addr uint32, v uint8) *Trap {
	if !d.inRange(addr, 1) {
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
	d.bytes[addr-d.Base] = v
	return nil
}

func (d *DRAM) Store16(addr uint32, v uint16) *Trap {
	if !d.inRange(addr, 2) {
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
	off := addr - d.Base
	d.bytes[off] = byte(v)
	d.bytes[off+1] = byte(v >> 8)
	return nil
}

func (d *DRAM) Store32(addr uint32, v uint32) *Trap {
	if !d.inRange(addr, 4) {
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
	off := addr - d.Base
	d.bytes[off] = byte(v)
	d.bytes[off+1] = byte(v >> 8)
	d.bytes[off+2] = byte(v >> 16)
	d.bytes[off+3] = byte(v >> 24)
	return nil
}

func (d *DRAM) Store64(addr uint32, v uint64) *Trap {
	if !d.inRange(addr, 8) {
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
	if trap := d.Store32(addr, uint32(v)); trap != nil {
		return trap
	}
	return d.Store32(addr+4, uint32(v>>32))
}

// Byte exposes a single physical byte for the virtio-blk DMA engine
// (spec.md §4.9), which copies guest memory byte-by-byte without going
// through the sized Bus contract.
func (d *DRAM) Byte(addr uint32) (uint8, bool) {
	if !d.inRange(addr, 1) {
		return 0, false
	}
	return d.bytes[addr-d.Base], true
}

func (d *DRAM) SetByte(addr uint32, v uint8) bool {
	if !d.inRange(addr, 1) {
		return false
	}
	d.bytes[addr-d.Base] = v
	return true
}
