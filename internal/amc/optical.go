// internal/amc/optical.go
package amc

import "fmt"

// LinkStatus holds the error and packet counters of one optical link.
type LinkStatus struct {
	TrackingErrors uint32
	TriggerErrors  uint32
	DataPackets    uint32
	GBTTrackErrors uint32
	GBTDataPackets uint32
}

// IPBusCounters are the strobe/ack pairs of one link.
type IPBusCounters struct {
	OptoHybridStrobe uint32
	OptoHybridAck    uint32
	TrackingStrobe   uint32
	TrackingAck      uint32
	CounterStrobe    uint32
	CounterAck       uint32
}

// IPBus counter selection bits, for both IPBusCounters and ResetIPBusCounters.
const (
	IPBusOptoHybridStrobe uint8 = 1 << iota
	IPBusOptoHybridAck
	IPBusTrackingStrobe
	IPBusTrackingAck
	IPBusCounterStrobe
	IPBusCounterAck

	IPBusAll uint8 = 0x3f
)

// Link reset selection bits.
const (
	ResetLinkCounters    uint8 = 0x1
	ResetTriggerCounters uint8 = 0x2
	ResetTrackCounters   uint8 = 0x4
)

// TriggerSubLinks is the number of trigger links per OptoHybrid.
const TriggerSubLinks = 2

// OHLinkCount selects one trigger link error counter.
type OHLinkCount uint8

const (
	LinkNotValid OHLinkCount = iota
	LinkMissedComma
	LinkOverflow
	LinkUnderflow
	LinkSyncWord
)

func (c OHLinkCount) suffix() string {
	switch c {
	case LinkNotValid:
		return "NOT_VALID_CNT"
	case LinkOverflow:
		return "OVERFLOW_CNT"
	case LinkUnderflow:
		return "UNDERFLOW_CNT"
	case LinkSyncWord:
		return "SYNC_WORD_CNT"
	default:
		return "MISSED_COMMA_CNT"
	}
}

// LinkStatus reads the counters of one link. An unusable link yields zeros.
func (d *Device) LinkStatus(link uint) (LinkStatus, error) {
	var st LinkStatus
	if !d.linkCheck(link, "link status") {
		return st, nil
	}

	reads := []struct {
		path string
		dst  *uint32
	}{
		{fmt.Sprintf("OH_LINKS.OH%d.TRACK_LINK_ERROR_CNT", link), &st.TrackingErrors},
		{fmt.Sprintf("TRIGGER.OH%d.LINK0_MISSED_COMMA_CNT", link), &st.TriggerErrors},
		{fmt.Sprintf("OH_LINKS.OH%d.VFAT_BLOCK_CNT", link), &st.DataPackets},
	}
	for _, r := range reads {
		v, err := d.Read(r.path)
		if err != nil {
			return LinkStatus{}, err
		}
		*r.dst = v
	}
	st.GBTTrackErrors = st.TrackingErrors
	st.GBTDataPackets = st.DataPackets
	return st, nil
}

// LinkReset resets the selected counters of one link. An unusable link is a no-op.
func (d *Device) LinkReset(link uint, resets uint8) error {
	if !d.linkCheck(link, "link reset") {
		return nil
	}
	if resets&ResetLinkCounters != 0 {
		if err := d.Write("OH_LINKS.CTRL.CNT_RESET", uint32(link)); err != nil {
			return err
		}
	}
	if resets&ResetTriggerCounters != 0 {
		if err := d.Write("TRIGGER.CTRL.CNT_RESET", uint32(link)); err != nil {
			return err
		}
	}
	if resets&ResetTrackCounters != 0 {
		if err := d.Write("OH_LINKS.CTRL.CNT_RESET", uint32(link)); err != nil {
			return err
		}
	}
	return nil
}

type ipbusField struct {
	bit  uint8
	path string
	dst  func(c *IPBusCounters) *uint32
}

func ipbusFields(link uint) []ipbusField {
	return []ipbusField{
		{IPBusOptoHybridStrobe, fmt.Sprintf("COUNTERS.IPBus.Strobe.OptoHybrid_%d", link),
			func(c *IPBusCounters) *uint32 { return &c.OptoHybridStrobe }},
		{IPBusOptoHybridAck, fmt.Sprintf("COUNTERS.IPBus.Ack.OptoHybrid_%d", link),
			func(c *IPBusCounters) *uint32 { return &c.OptoHybridAck }},
		{IPBusTrackingStrobe, fmt.Sprintf("COUNTERS.IPBus.Strobe.TRK_%d", link),
			func(c *IPBusCounters) *uint32 { return &c.TrackingStrobe }},
		{IPBusTrackingAck, fmt.Sprintf("COUNTERS.IPBus.Ack.TRK_%d", link),
			func(c *IPBusCounters) *uint32 { return &c.TrackingAck }},
		{IPBusCounterStrobe, "COUNTERS.IPBus.Strobe.Counters",
			func(c *IPBusCounters) *uint32 { return &c.CounterStrobe }},
		{IPBusCounterAck, "COUNTERS.IPBus.Ack.Counters",
			func(c *IPBusCounters) *uint32 { return &c.CounterAck }},
	}
}

// IPBusCounters refreshes the fields selected by mode and returns the link's record.
// Unselected fields keep their previous values. An unusable link yields zeros.
func (d *Device) IPBusCounters(link uint, mode uint8) (IPBusCounters, error) {
	if !d.linkCheck(link, "IPBus counter") {
		return IPBusCounters{}, nil
	}

	next := d.ipbus[link]
	for _, f := range ipbusFields(link) {
		if mode&f.bit == 0 {
			continue
		}
		v, err := d.Read(f.path)
		if err != nil {
			return d.ipbus[link], err
		}
		*f.dst(&next) = v
	}
	d.ipbus[link] = next
	return next, nil
}

// ResetIPBusCounters resets the counters selected by resets. An unusable link is a no-op.
func (d *Device) ResetIPBusCounters(link uint, resets uint8) error {
	if !d.linkCheck(link, "reset IPBus counters") {
		return nil
	}
	for _, f := range ipbusFields(link) {
		if resets&f.bit == 0 {
			continue
		}
		if err := d.Write(f.path+".Reset", 0x1); err != nil {
			return err
		}
	}
	return nil
}

// LinkDAQStatus reads DAQ.OH<link>.STATUS.
func (d *Device) LinkDAQStatus(link uint) (uint32, error) {
	return d.linkRead(link, "link DAQ status", fmt.Sprintf("DAQ.OH%d.STATUS", link))
}

// LinkDAQCounters reads the corrupted VFAT block count (mode 0) or the event number.
func (d *Device) LinkDAQCounters(link uint, mode uint8) (uint32, error) {
	rel := fmt.Sprintf("DAQ.OH%d.COUNTERS.EVN", link)
	if mode == 0 {
		rel = fmt.Sprintf("DAQ.OH%d.COUNTERS.CORRUPT_VFAT_BLK_CNT", link)
	}
	return d.linkRead(link, "link DAQ counters", rel)
}

// LinkLastDAQBlock reads the last DAQ block seen on the link.
func (d *Device) LinkLastDAQBlock(link uint) (uint32, error) {
	return d.linkRead(link, "link last DAQ block", fmt.Sprintf("DAQ.OH%d.LASTBLOCK", link))
}

// OptoHybridTriggerRate reads the trigger rate of one OptoHybrid.
func (d *Device) OptoHybridTriggerRate(oh uint) (uint32, error) {
	return d.linkRead(oh, "trigger rate", fmt.Sprintf("TRIGGER.OH%d.TRIGGER_RATE", oh))
}

// OptoHybridTriggerCount reads the trigger count of one OptoHybrid.
func (d *Device) OptoHybridTriggerCount(oh uint) (uint32, error) {
	return d.linkRead(oh, "trigger count", fmt.Sprintf("TRIGGER.OH%d.TRIGGER_CNT", oh))
}

// OptoHybridClusterRate reads the rate of clusters of size cs.
func (d *Device) OptoHybridClusterRate(oh, cs uint) (uint32, error) {
	return d.linkRead(oh, "cluster rate", fmt.Sprintf("TRIGGER.OH%d.CLUSTER_SIZE_%d_RATE", oh, cs))
}

// OptoHybridClusterCount reads the count of clusters of size cs.
func (d *Device) OptoHybridClusterCount(oh, cs uint) (uint32, error) {
	return d.linkRead(oh, "cluster count", fmt.Sprintf("TRIGGER.OH%d.CLUSTER_SIZE_%d_CNT", oh, cs))
}

// OptoHybridDebugLastCluster reads the last cluster word of slot cs.
func (d *Device) OptoHybridDebugLastCluster(oh, cs uint) (uint32, error) {
	return d.linkRead(oh, "debug last cluster", fmt.Sprintf("TRIGGER.OH%d.DEBUG_LAST_CLUSTER_%d", oh, cs))
}

// OptoHybridTriggerLinkCount reads one error counter of a trigger link.
// A sub-link outside 0..TriggerSubLinks-1 yields zero without bus access.
func (d *Device) OptoHybridTriggerLinkCount(oh, link uint, kind OHLinkCount) (uint32, error) {
	if link >= TriggerSubLinks {
		d.log.Errorf("trigger link count requested for OH%d link %d: outside expectation (0-%d)",
			oh, link, TriggerSubLinks-1)
		return 0, nil
	}
	return d.linkRead(oh, "trigger link count",
		fmt.Sprintf("TRIGGER.OH%d.LINK%d_%s", oh, link, kind.suffix()))
}

func (d *Device) linkRead(link uint, op, rel string) (uint32, error) {
	if !d.linkCheck(link, op) {
		return 0, nil
	}
	return d.Read(rel)
}
