package emulator

// VirtioBlk address offsets and identification constants, per spec.md §6.
const (
	virtioBase = 0x1000_1000
	virtioEnd  = 0x1000_2000

	virtioMagic      = virtioBase + 0x00
	virtioVersion    = virtioBase + 0x04
	virtioDeviceID   = virtioBase + 0x08
	virtioVendorID   = virtioBase + 0x0c
	virtioFeatures   = virtioBase + 0x10
	virtioDrvFeat    = virtioBase + 0x20
	virtioGuestPgSz  = virtioBase + 0x28
	virtioQueueSel   = virtioBase + 0x30
	virtioQueueNumM  = virtioBase + 0x34
	virtioQueueNum   = virtioBase + 0x38
	virtioQueuePFN   = virtioBase + 0x40
	virtioQueueNotfy = virtioBase + 0x50
	virtioStatus     = virtioBase + 0x70

	virtioMagicValue    = 0x74726976
	virtioVersionValue  = 1
	virtioDeviceIDValue = 2
	virtioVendorValue   = 0x554d4551

	virtioDescNum = 8 // DESC_NUM, per spec.md §4.9
	sectorSize    = 512
)

// VirtioBlock is the legacy-MMIO virtio-blk device plus its disk-image
// backing store, per spec.md §3/§4.9. DMA (disk_access) is driven by
// the CPU's interrupt-poll step, not by VirtioBlock itself — the device
// only tracks register state and exposes what disk_access needs.
type VirtioBlock struct {
	driverFeatures uint32
	guestPageSize  uint32
	queueSel       uint32
	queueNum       uint32
	queuePFN       uint32
	status         uint32

	queueNotify uint32 // sentinel value = no pending notification
	nextID      uint32

	disk []byte
}

const virtioNoNotify = 0xffffffff

func newVirtioBlock(disk []byte) *VirtioBlock {
	return &VirtioBlock{
		queueNotify:   virtioNoNotify,
		guestPageSize: pageSize,
		disk:          disk,
	}
}

// IsInterrupting reports a pending disk notification, per spec.md §4.7
// step 2. Unlike Uart's IsInterrupting, this is not single-shot by
// itself — disk_access (invoked by the same poll step) is what clears
// the notification.
func (v *VirtioBlock) IsInterrupting() bool {
	return v.queueNotify != virtioNoNotify
}

func (v *VirtioBlock) Load(addr uint32, sizeBits uint8) (uint64, *Trap) {
	if sizeBits != 32 {
		return 0, exceptionTrap(CauseLoadAccessFault, addr)
	}
	switch addr {
	case virtioMagic:
		return virtioMagicValue, nil
	case virtioVersion:
		return virtioVersionValue, nil
	case virtioDeviceID:
		return virtioDeviceIDValue, nil
	case virtioVendorID:
		return virtioVendorValue, nil
	case virtioFeatures:
		return 0, nil
	case virtioQueueNumM:
		return virtioDescNum, nil
	case virtioStatus:
		return uint64(v.status), nil
	default:
		return 0, nil
	}
}

func (v *VirtioBlock) Store(addr uint32, sizeBits uint8, val uint64) *Trap {
	if sizeBits != 32 {
		return exceptionTrap(CauseStoreAMOAccessFault, addr)
	}
	v32 := uint32(val)
	switch addr {
	case virtioDrvFeat:
		v.driverFeatures = v32
	case virtioGuestPgSz:
		v.guestPageSize = v32
	case virtioQueueSel:
		v.queueSel = v32
	case virtioQueueNum:
		v.queueNum = v32
	case virtioQueuePFN:
		v.queuePFN = v32
	case virtioQueueNotfy:
		v.queueNotify = v32
	case virtioStatus:
		v.status = v32
	}
	return nil
}

func (v *VirtioBlock) descAddr() uint32 {
	return v.queuePFN * v.guestPageSize
}

// diskAccess is the legacy-MMIO virtio-blk DMA engine, per spec.md §4.9.
// It is invoked exactly once per detected notification (from the
// interrupt-poll step), walks a fixed two-descriptor chain, and copies
// bytes strictly ascending between DRAM and the disk-image backing
// store.
func (cpu *Machine) diskAccess() {
	disk := cpu.bus.disk
	dram := cpu.bus.dram

	descBase := disk.descAddr()
	availOffset := descBase + pageSize
	avail1, _ := dram.Load16(availOffset + 2)
	descIdx, _ := dram.Load16(availOffset + 4 + 2*uint32(uint16(avail1)%virtioDescNum))

	// Descriptor 0 is itself a vring_desc (addr:u32lo, len:u32, flags:u16,
	// next:u16) whose addr field points at the virtio_blk_outhdr; sector
	// lives at outhdr+8, per spec.md §4.9.
	desc0 := descBase + 16*uint32(descIdx)
	outhdrAddr, _ := dram.Load32(desc0 + 0)
	sector, _ := dram.Load64(outhdrAddr + 8)

	desc1Idx, _ := dram.Load16(desc0 + 14) // next field of descriptor 0
	desc1 := descBase + 16*uint32(desc1Idx)

	addr1, _ := dram.Load32(desc1 + 0)
	length, _ := dram.Load32(desc1 + 8)
	flags, _ := dram.Load16(desc1 + 12)

	if flags&0x2 == 0 {
		// Device-write direction: guest -> disk.
		for i := uint32(0); i < length; i++ {
			b, _ := dram.Byte(addr1 + i)
			off := sector*sectorSize + uint64(i)
			if off < uint64(len(disk.disk)) {
				disk.disk[off] = b
			}
		}
	} else {
		// Device-read direction: disk -> guest.
		for i := uint32(0); i < length; i++ {
			off := sector*sectorSize + uint64(i)
			var b uint8
			if off < uint64(len(disk.disk)) {
				b = disk.disk[off]
			}
			dram.SetByte(addr1+i, b)
		}
	}

	// Used ring mirrors the avail ring's layout: flags@0, idx@2,
	// ring@4. The idx field at offset 2 is the running counter that
	// picks the ring slot (spec.md §4.9's "used ring at offset 2");
	// the value landing in that slot is the device's growing id,
	// wrapping via plain uint32 overflow per spec.md §9.
	usedOffset := descBase + 2*pageSize
	usedIdx, _ := dram.Load16(usedOffset + 2)
	slot := uint32(usedIdx) % virtioDescNum
	id := disk.nextID
	disk.nextID++
	dram.Store16(usedOffset+4+2*slot, uint16(id))
	dram.Store16(usedOffset+2, usedIdx+1)

	disk.queueNotify = virtioNoNotify
}
