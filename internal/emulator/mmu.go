package emulator

// Access is the kind of reference being translated, per spec.md §4.5.
type Access uint8

const (
	AccessInstruction Access = iota
	AccessLoad
	AccessStore
)

func (a Access) faultCause() Cause {
	switch a {
	case AccessInstruction:
		return CauseInstructionAccessFault
	case AccessStore:
		return CauseStoreAMOAccessFault
	default:
		return CauseLoadAccessFault
	}
}

func (a Access) pageFaultCause() Cause {
	switch a {
	case AccessInstruction:
		return CauseInstructionPageFault
	case AccessStore:
		return CauseStoreAMOPageFault
	default:
		return CauseLoadPageFault
	}
}

const pageSize = 4096

// ptePPNMask covers the 44-bit PPN window spec.md §9 calls for even
// though this core's physical addresses fit in 32 bits: the PTE itself
// stays full Sv39 width, in case of future widening.
const ptePPNMask = 0xfffffffffff // 44 bits

// translate is the Sv39-shaped software page-table walker of spec.md
// §4.5. A pte with r==1 or x==1 is a leaf as soon as the walk reaches
// it; no access-type (r/w/x) permission check runs against the
// requested access, and none of U/SUM/MXR, A/D-bit writeback, or
// misaligned-superpage checks run either — spec.md §4.5 step 6
// explicitly omits permission/U/SUM/MXR checks, and the rest are
// spec.md Non-goals.
func (cpu *Machine) translate(va uint32, access Access) (uint32, *Trap) {
	if !cpu.csr.enablePaging {
		return va, nil
	}

	vpn := [3]uint32{
		(va >> 12) & 0x1ff,
		(va >> 21) & 0x1ff,
		(va >> 30) & 0x1ff,
	}

	a := cpu.csr.pageTableRoot
	for i := 2; ; {
		pteAddr := a + vpn[i]*8
		pte, trap := cpu.bus.Load(pteAddr, 64)
		if trap != nil {
			return 0, exceptionTrap(access.faultCause(), va)
		}

		v := pte&1 != 0
		r := pte&(1<<1) != 0
		w := pte&(1<<2) != 0
		x := pte&(1<<3) != 0

		if !v || (!r && w) {
			return 0, exceptionTrap(access.pageFaultCause(), va)
		}

		if r || x {
			return translateLeaf(va, i, pte, vpn)
		}

		i--
		if i < 0 {
			return 0, exceptionTrap(access.pageFaultCause(), va)
		}
		ppn := (pte >> 10) & ptePPNMask
		a = uint32(ppn) * pageSize
	}
}

// translateLeaf computes the physical address for a leaf PTE found at
// walk level i, per spec.md §4.5 step 8. No permission check against
// the requested access runs here; spec.md §4.5 step 6 calls that out
// explicitly as omitted.
func translateLeaf(va uint32, level int, pte uint64, vpn [3]uint32) (uint32, *Trap) {
	ppn := (pte >> 10) & ptePPNMask
	ppn0 := uint32(ppn & 0x1ff)
	ppn1 := uint32((ppn >> 9) & 0x1ff)
	ppn2 := uint32((ppn >> 18) & 0x3ffffff)
	offset := va & 0xfff

	switch level {
	case 0:
		return ppn2<<30 | ppn1<<21 | ppn0<<12 | offset, nil
	case 1:
		return ppn2<<30 | ppn1<<21 | vpn[0]<<12 | offset, nil
	default: // level == 2
		return ppn2<<30 | vpn[1]<<21 | vpn[0]<<12 | offset, nil
	}
}
