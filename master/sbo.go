package master

import (
	"github.com/dnp3go/dnp3/objects"
)

// CompareCROBEcho implements select-before-operate response validation:
// compare the echoed control object's index, control code, count, on-time
// and off-time against what was sent. The echoed status is not compared;
// it is returned for the caller to inspect. request and response are each a single-header,
// single-item CROB fragment built by crobBody/decoded from the wire.
func CompareCROBEcho(sent objects.CROB, sentIndex uint32, response []objects.ObjectHeader) (objects.CommandStatus, error) {
	if len(response) != 1 {
		return 0, ErrHeaderCountMismatch
	}
	h := response[0]
	if h.Kind != objects.KindCROB {
		return 0, ErrHeaderTypeMismatch
	}
	if len(h.Items) != 1 {
		return 0, ErrHeaderCountMismatch
	}
	item := h.Items[0]
	if item.Index != sentIndex {
		return 0, ErrObjectValueMismatch
	}
	echo, ok := item.Value.(objects.ControlRelayOutputBlock)
	if !ok {
		return 0, ErrHeaderTypeMismatch
	}
	if echo.CROB.Code != sent.Code || echo.CROB.Count != sent.Count ||
		echo.CROB.OnTime != sent.OnTime || echo.CROB.OffTime != sent.OffTime {
		return 0, ErrObjectValueMismatch
	}
	return echo.CROB.Status, nil
}
