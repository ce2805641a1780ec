package objects

// HeaderInfo is the addressing metadata of a header, passed to every
// Visitor method alongside its typed items.
type HeaderInfo struct {
	Group     byte
	Variation byte
	Qualifier Qualifier
}

func (h ObjectHeader) info() HeaderInfo {
	return HeaderInfo{Group: h.Group, Variation: h.Variation, Qualifier: h.Qualifier}
}

// Visitor receives one call per decoded header, routed to the method
// matching its measurement kind. Implementations that only care about a
// few kinds can embed NopVisitor and override the rest.
type Visitor interface {
	VisitBinaryInputPacked(HeaderInfo, []BinaryInputPacked) error
	VisitBinaryInputStatic(HeaderInfo, []BinaryInputStatic) error
	VisitBinaryInputEvent(HeaderInfo, []BinaryInputEvent) error
	VisitDoubleBitBinaryStatic(HeaderInfo, []DoubleBitBinaryStatic) error
	VisitDoubleBitBinaryEvent(HeaderInfo, []DoubleBitBinaryEvent) error
	VisitBinaryOutputStatic(HeaderInfo, []BinaryOutputStatusStatic) error
	VisitBinaryOutputEvent(HeaderInfo, []BinaryOutputEvent) error
	VisitCROB(HeaderInfo, []ControlRelayOutputBlock) error
	VisitPatternMask(HeaderInfo, []PatternMaskObject) error
	VisitCounterStatic(HeaderInfo, []CounterStatic) error
	VisitCounterEvent(HeaderInfo, []CounterEvent) error
	VisitFrozenCounterStatic(HeaderInfo, []FrozenCounterStatic) error
	VisitFrozenCounterEvent(HeaderInfo, []FrozenCounterEvent) error
	VisitAnalogInputStatic(HeaderInfo, []AnalogInputStatic) error
	VisitAnalogInputEvent(HeaderInfo, []AnalogInputEvent) error
	VisitAnalogOutputStatusStatic(HeaderInfo, []AnalogOutputStatusStatic) error
	VisitAnalogOutputCommand(HeaderInfo, []AnalogOutputCommandInfo) error
	VisitTimeAndDate(HeaderInfo, []TimeAndDateInfo) error
	VisitCTO(HeaderInfo, []CTOInfo) error
	VisitTimeDelay(HeaderInfo, []TimeDelayInfo) error
	VisitClassData(HeaderInfo) error
	VisitInternalIndication(HeaderInfo, []InternalIndicationInfo) error
	VisitOctetString(HeaderInfo, []OctetStringInfo) error
	VisitDeviceAttribute(HeaderInfo, []AttributeInfo) error
}

// NopVisitor implements Visitor with no-op methods; embed it in a type
// that only overrides the kinds it cares about.
type NopVisitor struct{}

func (NopVisitor) VisitBinaryInputPacked(HeaderInfo, []BinaryInputPacked) error             { return nil }
func (NopVisitor) VisitBinaryInputStatic(HeaderInfo, []BinaryInputStatic) error             { return nil }
func (NopVisitor) VisitBinaryInputEvent(HeaderInfo, []BinaryInputEvent) error               { return nil }
func (NopVisitor) VisitDoubleBitBinaryStatic(HeaderInfo, []DoubleBitBinaryStatic) error     { return nil }
func (NopVisitor) VisitDoubleBitBinaryEvent(HeaderInfo, []DoubleBitBinaryEvent) error       { return nil }
func (NopVisitor) VisitBinaryOutputStatic(HeaderInfo, []BinaryOutputStatusStatic) error     { return nil }
func (NopVisitor) VisitBinaryOutputEvent(HeaderInfo, []BinaryOutputEvent) error             { return nil }
func (NopVisitor) VisitCROB(HeaderInfo, []ControlRelayOutputBlock) error                    { return nil }
func (NopVisitor) VisitPatternMask(HeaderInfo, []PatternMaskObject) error                   { return nil }
func (NopVisitor) VisitCounterStatic(HeaderInfo, []CounterStatic) error                     { return nil }
func (NopVisitor) VisitCounterEvent(HeaderInfo, []CounterEvent) error                       { return nil }
func (NopVisitor) VisitFrozenCounterStatic(HeaderInfo, []FrozenCounterStatic) error         { return nil }
func (NopVisitor) VisitFrozenCounterEvent(HeaderInfo, []FrozenCounterEvent) error           { return nil }
func (NopVisitor) VisitAnalogInputStatic(HeaderInfo, []AnalogInputStatic) error             { return nil }
func (NopVisitor) VisitAnalogInputEvent(HeaderInfo, []AnalogInputEvent) error               { return nil }
func (NopVisitor) VisitAnalogOutputStatusStatic(HeaderInfo, []AnalogOutputStatusStatic) error {
	return nil
}
func (NopVisitor) VisitAnalogOutputCommand(HeaderInfo, []AnalogOutputCommandInfo) error { return nil }
func (NopVisitor) VisitTimeAndDate(HeaderInfo, []TimeAndDateInfo) error                 { return nil }
func (NopVisitor) VisitCTO(HeaderInfo, []CTOInfo) error                                 { return nil }
func (NopVisitor) VisitTimeDelay(HeaderInfo, []TimeDelayInfo) error                     { return nil }
func (NopVisitor) VisitClassData(HeaderInfo) error                                      { return nil }
func (NopVisitor) VisitInternalIndication(HeaderInfo, []InternalIndicationInfo) error    { return nil }
func (NopVisitor) VisitOctetString(HeaderInfo, []OctetStringInfo) error                 { return nil }
func (NopVisitor) VisitDeviceAttribute(HeaderInfo, []AttributeInfo) error               { return nil }

// Dispatch converts h's items to their concrete type and routes the call
// to the matching Visitor method.
func Dispatch(h ObjectHeader, v Visitor) error {
	info := h.info()
	if h.Kind == KindClassData {
		return v.VisitClassData(info)
	}
	switch h.Kind {
	case KindBinaryInputPacked:
		return v.VisitBinaryInputPacked(info, typedItems[BinaryInputPacked](h.Items))
	case KindBinaryInputStatic:
		return v.VisitBinaryInputStatic(info, typedItems[BinaryInputStatic](h.Items))
	case KindBinaryInputEvent:
		return v.VisitBinaryInputEvent(info, typedItems[BinaryInputEvent](h.Items))
	case KindDoubleBitBinaryStatic:
		return v.VisitDoubleBitBinaryStatic(info, typedItems[DoubleBitBinaryStatic](h.Items))
	case KindDoubleBitBinaryEvent:
		return v.VisitDoubleBitBinaryEvent(info, typedItems[DoubleBitBinaryEvent](h.Items))
	case KindBinaryOutputStatic:
		return v.VisitBinaryOutputStatic(info, typedItems[BinaryOutputStatusStatic](h.Items))
	case KindBinaryOutputEvent:
		return v.VisitBinaryOutputEvent(info, typedItems[BinaryOutputEvent](h.Items))
	case KindCROB:
		return v.VisitCROB(info, typedItems[ControlRelayOutputBlock](h.Items))
	case KindPatternMask:
		return v.VisitPatternMask(info, typedItems[PatternMaskObject](h.Items))
	case KindCounterStatic:
		return v.VisitCounterStatic(info, typedItems[CounterStatic](h.Items))
	case KindCounterEvent:
		return v.VisitCounterEvent(info, typedItems[CounterEvent](h.Items))
	case KindFrozenCounterStatic:
		return v.VisitFrozenCounterStatic(info, typedItems[FrozenCounterStatic](h.Items))
	case KindFrozenCounterEvent:
		return v.VisitFrozenCounterEvent(info, typedItems[FrozenCounterEvent](h.Items))
	case KindAnalogInputStatic:
		return v.VisitAnalogInputStatic(info, typedItems[AnalogInputStatic](h.Items))
	case KindAnalogInputEvent:
		return v.VisitAnalogInputEvent(info, typedItems[AnalogInputEvent](h.Items))
	case KindAnalogOutputStatusStatic:
		return v.VisitAnalogOutputStatusStatic(info, typedItems[AnalogOutputStatusStatic](h.Items))
	case KindAnalogOutputCommand:
		return v.VisitAnalogOutputCommand(info, typedItems[AnalogOutputCommandInfo](h.Items))
	case KindTimeAndDate:
		return v.VisitTimeAndDate(info, typedItems[TimeAndDateInfo](h.Items))
	case KindCTO:
		return v.VisitCTO(info, typedItems[CTOInfo](h.Items))
	case KindTimeDelay:
		return v.VisitTimeDelay(info, typedItems[TimeDelayInfo](h.Items))
	case KindInternalIndication:
		return v.VisitInternalIndication(info, typedItems[InternalIndicationInfo](h.Items))
	case KindOctetString:
		return v.VisitOctetString(info, typedItems[OctetStringInfo](h.Items))
	case KindDeviceAttribute:
		return v.VisitDeviceAttribute(info, typedItems[AttributeInfo](h.Items))
	default:
		return ErrUnknownGroupVariation
	}
}

// typedItems asserts every item's Value to T, skipping entries with no
// value (qualifier-only request headers carry none).
func typedItems[T any](items []Item) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if v, ok := it.Value.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
