// internal/status/encode.go
package status

// Encode converts a Snapshot into a full board status block.
// Device name slots are left zero: the writer owns them.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotLinkMaskHigh] = uint16(s.LinkMask >> 16)
	regs[SlotLinkMaskLow] = uint16(s.LinkMask)
	regs[SlotFailedTables] = s.FailedTables
	regs[SlotUnknownPoints] = s.UnknownPoints
	regs[SlotCycleSeq] = s.CycleSeq

	return regs
}
