// internal/classify/classify.go
package classify

import (
	"fmt"
	"strconv"
)

// Unknown is the raw value of a point that has never been read (or could not be).
const Unknown uint32 = 0xFFFFFFFF

// FirmwarePoison is the value firmware reports for an unreadable OptoHybrid version.
const FirmwarePoison uint32 = 0xDEADDEAD

// LaneWidth is the number of controllable input lanes rendered in lane masks.
const LaneWidth = 12

// Category is the severity of a label.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryNeutral
	CategoryInfo
	CategorySuccess
	CategoryWarning
	CategoryDanger
)

func (c Category) String() string {
	switch c {
	case CategoryUnknown:
		return "unknown"
	case CategoryNeutral:
		return "neutral"
	case CategoryInfo:
		return "info"
	case CategorySuccess:
		return "success"
	case CategoryWarning:
		return "warning"
	case CategoryDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// MarshalText renders the category name in JSON payloads.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	for x := CategoryUnknown; x <= CategoryDanger; x++ {
		if x.String() == string(b) {
			*c = x
			return nil
		}
	}
	return fmt.Errorf("classify: unknown category %q", b)
}

// Class is the presentation class consumed by the monitor pages.
// Unknown and neutral share the default style.
func (c Category) Class() string {
	switch c {
	case CategoryInfo, CategorySuccess, CategoryWarning, CategoryDanger:
		return "label label-" + c.String()
	default:
		return "label label-default"
	}
}

// Kind is the semantic kind of a monitor point.
type Kind uint8

const (
	// KindReadyFlag: 0 → N/warning, else Y/success (DAQ_ENABLE, DAQ_LINK_READY).
	KindReadyFlag Kind = iota
	// KindLockFlag: 0 → N/danger, else Y/success (MMCM_LOCKED, BC0_LOCKED).
	KindLockFlag
	// KindWarnFlag: 0 → N/success, else Y/warning (DAQ_LINK_AFULL).
	KindWarnFlag
	// KindFaultFlag: 0 → N/success, else Y/danger (overflow/underflow flags).
	KindFaultFlag
	// KindCounter: decimal/info.
	KindCounter
	// KindErrorCounter: 0 → "0"/success, else decimal/danger.
	KindErrorCounter
	// KindLinkErrorCounter: 0 → "0"/info, else decimal/warning.
	KindLinkErrorCounter
	// KindTTSState: trigger throttling state enumeration.
	KindTTSState
	// KindLaneMask: LaneWidth-wide binary/info.
	KindLaneMask
	// KindFirmwareID: 8-digit uppercase hex/info, FirmwarePoison → ERROR/danger.
	KindFirmwareID

	numKinds
)

// Kinds lists every declared kind.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// Class groups kinds into broad semantic classes.
type Class string

const (
	ClassFlag    Class = "boolean-flag"
	ClassCounter Class = "counter"
	ClassState   Class = "enum"
	ClassBitmask Class = "bitmask"
	ClassHexID   Class = "hex-id"
)

// Class returns the broad semantic class of k.
func (k Kind) Class() Class {
	switch k {
	case KindReadyFlag, KindLockFlag, KindWarnFlag, KindFaultFlag:
		return ClassFlag
	case KindCounter, KindErrorCounter, KindLinkErrorCounter:
		return ClassCounter
	case KindTTSState:
		return ClassState
	case KindLaneMask:
		return ClassBitmask
	case KindFirmwareID:
		return ClassHexID
	default:
		return ClassCounter
	}
}

func (k Kind) String() string {
	switch k {
	case KindReadyFlag:
		return "ready-flag"
	case KindLockFlag:
		return "lock-flag"
	case KindWarnFlag:
		return "warn-flag"
	case KindFaultFlag:
		return "fault-flag"
	case KindCounter:
		return "counter"
	case KindErrorCounter:
		return "error-counter"
	case KindLinkErrorCounter:
		return "link-error-counter"
	case KindTTSState:
		return "tts-state"
	case KindLaneMask:
		return "lane-mask"
	case KindFirmwareID:
		return "firmware-id"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText renders the kind name in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for _, x := range Kinds() {
		if x.String() == string(b) {
			*k = x
			return nil
		}
	}
	return fmt.Errorf("classify: unknown kind %q", b)
}

// Label is the derived display form of one raw value.
type Label struct {
	Text     string
	Category Category
}

var unknownLabel = Label{Text: "X", Category: CategoryUnknown}

// Classify maps a raw value of the given kind to its label.
// Unknown always maps to ("X", unknown), whatever the kind.
func Classify(k Kind, raw uint32) Label {
	if raw == Unknown {
		return unknownLabel
	}

	switch k {
	case KindReadyFlag:
		return flag(raw, CategoryWarning, CategorySuccess)
	case KindLockFlag:
		return flag(raw, CategoryDanger, CategorySuccess)
	case KindWarnFlag:
		return flag(raw, CategorySuccess, CategoryWarning)
	case KindFaultFlag:
		return flag(raw, CategorySuccess, CategoryDanger)
	case KindCounter:
		return Label{Text: decimal(raw), Category: CategoryInfo}
	case KindErrorCounter:
		return counter(raw, CategorySuccess, CategoryDanger)
	case KindLinkErrorCounter:
		return counter(raw, CategoryInfo, CategoryWarning)
	case KindTTSState:
		return ttsState(raw)
	case KindLaneMask:
		return Label{Text: laneMask(raw), Category: CategoryInfo}
	case KindFirmwareID:
		if raw == FirmwarePoison {
			return Label{Text: "ERROR", Category: CategoryDanger}
		}
		return Label{Text: fmt.Sprintf("%08X", raw), Category: CategoryInfo}
	default:
		return Label{Text: decimal(raw), Category: CategoryNeutral}
	}
}

func flag(raw uint32, zero, set Category) Label {
	if raw == 0 {
		return Label{Text: "N", Category: zero}
	}
	return Label{Text: "Y", Category: set}
}

func counter(raw uint32, zero, nonzero Category) Label {
	if raw == 0 {
		return Label{Text: "0", Category: zero}
	}
	return Label{Text: decimal(raw), Category: nonzero}
}

// TTS state codes.
const (
	TTSBusy  uint32 = 1
	TTSError uint32 = 2
	TTSWarn  uint32 = 3
	TTSOOS   uint32 = 4
	TTSReady uint32 = 8
)

func ttsState(raw uint32) Label {
	switch raw {
	case TTSBusy:
		return Label{Text: "BUSY", Category: CategoryWarning}
	case TTSError:
		return Label{Text: "ERROR", Category: CategoryDanger}
	case TTSWarn:
		return Label{Text: "WARN", Category: CategoryWarning}
	case TTSOOS:
		return Label{Text: "OOS", Category: CategoryDanger}
	case TTSReady:
		return Label{Text: "READY", Category: CategorySuccess}
	default:
		return Label{Text: "NDF", Category: CategoryNeutral}
	}
}

func decimal(raw uint32) string {
	return strconv.FormatUint(uint64(raw), 10)
}

// laneMask renders the low LaneWidth bits, most significant first.
func laneMask(raw uint32) string {
	buf := make([]byte, LaneWidth)
	for i := 0; i < LaneWidth; i++ {
		if raw&(1<<uint(LaneWidth-1-i)) != 0 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
