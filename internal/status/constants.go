// internal/status/constants.go
package status

// Board Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per board.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the board health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the numeric code of the last error (errcode.Code.Num).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the board has been out of OK.
const SlotSecondsInError = 2

// SlotLinkMaskHigh and SlotLinkMaskLow hold the active link bitmask, high word first.
const SlotLinkMaskHigh = 3
const SlotLinkMaskLow = 4

// SlotFailedTables holds the number of tables that failed in the last cycle.
const SlotFailedTables = 5

// SlotUnknownPoints holds the number of points never read.
const SlotUnknownPoints = 6

// SlotCycleSeq holds the low 16 bits of the cycle sequence number.
const SlotCycleSeq = 7

// ---- RESERVED RANGE ----

// Slots 8-11 are reserved for future use.
const SlotReservedStart = 8
const SlotReservedEnd = 11

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 12

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a board whose tables all refreshed.
const HealthOK uint16 = 1

// HealthError represents a board that is unreachable or whose tables all failed.
const HealthError uint16 = 2

// HealthStale represents a board serving some tables from older cycles.
const HealthStale uint16 = 3

// HealthDisabled represents a board excluded from polling.
const HealthDisabled uint16 = 4

// HealthName renders a health code for logs and pages.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	case HealthDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
