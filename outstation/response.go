package outstation

import (
	"github.com/dnp3go/dnp3/eventbuffer"
	"github.com/dnp3go/dnp3/objects"
)

// eventGroupVariation fixes one default (group, variation) per measurement
// type for event responses — a database-wide default rather than the
// per-point PointConfig.EventVariation, since grouping buffered events
// (which carry no per-event variation tag) back into one index-prefixed header
// needs a single variation per type per fragment. Real deployments profile
// per-point event variations; this keeps the response builder tractable
// while still exercising every type the event buffer carries.
//
// AnalogOutputStatus has no entry: objects does not register a group 42
// (analog output event) variation, so analog output status changes are
// only visible via class-0, not the event stream — see DESIGN.md C7.
var eventGroupVariation = map[eventbuffer.MeasurementType]struct {
	group, variation byte
	kind             objects.Kind
}{
	eventbuffer.BinaryInput:          {2, 1, objects.KindBinaryInputEvent},
	eventbuffer.DoubleBitBinaryInput: {4, 1, objects.KindDoubleBitBinaryEvent},
	eventbuffer.BinaryOutputStatus:   {11, 1, objects.KindBinaryOutputEvent},
	eventbuffer.Counter:              {22, 1, objects.KindCounterEvent},
	eventbuffer.FrozenCounter:        {23, 1, objects.KindFrozenCounterEvent},
	eventbuffer.AnalogInput:          {32, 1, objects.KindAnalogInputEvent},
}

// buildEventHeaders groups selected events by measurement type into one
// object header per type, preserving selection order within a type.
// Octet-string events get one header per event, since each item's
// variation is its own byte length and a single header cannot mix
// variations.
func buildEventHeaders(events []eventbuffer.Event) []objects.ObjectHeader {
	var headers []objects.ObjectHeader
	byType := make(map[eventbuffer.MeasurementType][]objects.Item)
	var order []eventbuffer.MeasurementType

	for _, e := range events {
		if e.Type == eventbuffer.OctetString {
			info := e.Value.(objects.OctetStringInfo)
			headers = append(headers, objects.ObjectHeader{
				Group:     110,
				Variation: byte(len(info.Data)),
				Qualifier: objects.QualIndexPrefix8,
				Kind:      objects.KindOctetString,
				Items:     []objects.Item{{Index: e.Index, Value: info}},
			})
			continue
		}
		if _, ok := eventGroupVariation[e.Type]; !ok {
			continue
		}
		if _, seen := byType[e.Type]; !seen {
			order = append(order, e.Type)
		}
		byType[e.Type] = append(byType[e.Type], objects.Item{Index: e.Index, Value: e.Value})
	}

	for _, t := range order {
		gv := eventGroupVariation[t]
		headers = append(headers, objects.ObjectHeader{
			Group:     gv.group,
			Variation: gv.variation,
			Qualifier: objects.QualIndexPrefix8,
			Kind:      gv.kind,
			Items:     byType[t],
		})
	}
	return headers
}

// eventSize is a fixed per-event byte estimate used as the
// SelectForTransmit budget function. It covers the index prefix and value
// of every event kind except octet strings longer than 63 bytes, and it
// does not count object-header bytes. Events that do not fit stay pending
// for a later read; the response is still sent with FIN set (see
// buildReadResponse).
func eventSize(t eventbuffer.MeasurementType) int {
	switch t {
	case eventbuffer.OctetString:
		return 64
	case eventbuffer.BinaryInput, eventbuffer.DoubleBitBinaryInput, eventbuffer.BinaryOutputStatus:
		return 2
	default:
		return 8
	}
}
