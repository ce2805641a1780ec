package master

import (
	"github.com/dnp3go/dnp3/cursor"
	"github.com/dnp3go/dnp3/objects"
)

// encodeHeaders is the shared Encode-or-panic-free helper every request
// builder uses; a builder only ever encodes headers it constructed itself,
// so an encode error here means this package has a bug, not bad input.
func encodeHeaders(headers []objects.ObjectHeader) []byte {
	w := cursor.NewWriter(make([]byte, 0, 32))
	if err := objects.Encode(w, headers); err != nil {
		return nil
	}
	return w.Bytes()
}

// classScanBody builds the group 60 qualifier-all-objects markers for a
// class-0/1/2/3 read request (startup integrity poll or a configured poll).
func classScanBody(classes ClassMask) []byte {
	var headers []objects.ObjectHeader
	add := func(variation byte) {
		headers = append(headers, objects.ObjectHeader{
			Group: 60, Variation: variation, Qualifier: objects.QualAllObjects, Kind: objects.KindClassData,
		})
	}
	if classes.Class0 {
		add(1)
	}
	if classes.Class1 {
		add(2)
	}
	if classes.Class2 {
		add(3)
	}
	if classes.Class3 {
		add(4)
	}
	return encodeHeaders(headers)
}

// crobBody builds a single group 12 variation 1 CROB request header for a
// Select/Operate/DirectOperate command.
func crobBody(index uint32, crob objects.CROB) []byte {
	return encodeHeaders([]objects.ObjectHeader{
		{
			Group: 12, Variation: 1, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindCROB,
			Items: []objects.Item{{Index: index, Value: objects.ControlRelayOutputBlock{Index: index, CROB: crob}}},
		},
	})
}

// writeTimeBody builds a group 50 variation 1 (absolute time) write body.
func writeTimeBody(ms uint64) []byte {
	return encodeHeaders([]objects.ObjectHeader{
		{Group: 50, Variation: 1, Qualifier: objects.QualCount8, Kind: objects.KindTimeAndDate,
			Items: []objects.Item{{Value: objects.TimeAndDateInfo{Time: objects.Timestamp(ms)}}}},
	})
}

// clearRestartIINBody builds a group 80 variation 1 write clearing IIN1.7
// (device restart), index 7 per convention — the acknowledgement that
// tells the outstation the master has noticed the restart.
func clearRestartIINBody() []byte {
	return encodeHeaders([]objects.ObjectHeader{
		{Group: 80, Variation: 1, Qualifier: objects.QualIndexPrefix8, Kind: objects.KindInternalIndication,
			Items: []objects.Item{{Index: 7, Value: objects.InternalIndicationInfo{Index: 7, Value: false}}}},
	})
}

// lastRecordedTimeBody builds a group 50 variation 3 (last recorded time)
// write body, the LAN time-sync procedure's second step.
func lastRecordedTimeBody(ms uint64) []byte {
	return encodeHeaders([]objects.ObjectHeader{
		{Group: 50, Variation: 3, Qualifier: objects.QualCount8, Kind: objects.KindTimeAndDate,
			Items: []objects.Item{{Value: objects.TimeAndDateInfo{Time: objects.Timestamp(ms)}}}},
	})
}
