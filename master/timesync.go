package master

// maxWireTime is the largest value the 48-bit millisecond-since-epoch wire
// field (group 50) can carry.
const maxWireTime = (uint64(1) << 48) - 1

// ComputeNonLANTime implements the non-LAN time-sync computation:
// outstation_time = t_sent + (rtt - delay) / 2, where t_sent
// is the master's clock when it sent DELAY_MEASURE, t_recv is the
// master's clock when the response arrived, and delay is the outstation's
// self-reported processing delay (group 52 var 2, milliseconds).
//
// It rejects three distinct failure modes rather than silently clamping:
// a delay that exceeds the measured round trip (the outstation's clock or
// the link is unreliable), a result that has gone backwards relative to
// the outstation's previously known time (clock rollback), and a result
// that would not fit the wire field (u48 overflow).
func ComputeNonLANTime(tSentMs, tRecvMs uint64, delayMs uint16, prevKnownMs uint64, havePrev bool) (uint64, error) {
	if tRecvMs < tSentMs {
		return 0, ErrClockRollback
	}
	rtt := tRecvMs - tSentMs
	if uint64(delayMs) > rtt {
		return 0, ErrDelayExceedsRTT
	}
	offset := (rtt - uint64(delayMs)) / 2
	result := tSentMs + offset
	if havePrev && result < prevKnownMs {
		return 0, ErrClockRollback
	}
	if result > maxWireTime {
		return 0, ErrTimeFieldOverflow
	}
	return result, nil
}

// ComputeLANTime implements the LAN procedure: RECORD_CURRENT_TIME carries
// no objects, so the written time is simply the master's own clock
// captured at the moment the request was sent (t_local), with the same
// rollback/overflow checks applied.
func ComputeLANTime(tLocalMs uint64, prevKnownMs uint64, havePrev bool) (uint64, error) {
	if havePrev && tLocalMs < prevKnownMs {
		return 0, ErrClockRollback
	}
	if tLocalMs > maxWireTime {
		return 0, ErrTimeFieldOverflow
	}
	return tLocalMs, nil
}
