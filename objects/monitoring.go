package objects

import "github.com/dnp3go/dnp3/cursor"

// BinaryInputPacked is a group 1 variation 1 binary input: a bare boolean
// with no quality flags, one bit per point in its packed wire encoding.
type BinaryInputPacked struct {
	Index uint32
	Value bool
}

// BinaryInputStatic is a group 1 variation 2 binary input with quality
// flags; the point value is bit 7 of Flags.
type BinaryInputStatic struct {
	Index uint32
	Flags Flags
}

// BinaryInputEvent is a group 2 event (variation 1, 2 or 3): flags, and a
// time tagged with how it was derived (TimeInvalid if the variation carries
// no time at all).
type BinaryInputEvent struct {
	Index       uint32
	Flags       Flags
	Time        Timestamp
	TimeQuality TimeQuality
}

// DoubleBitBinaryStatic is a group 3 variation 2 double-bit binary input;
// the two-bit state lives in bits 6-7 of Flags.
type DoubleBitBinaryStatic struct {
	Index uint32
	Flags Flags
}

// DoubleBitBinaryEvent is a group 4 event (variation 1, 2 or 3).
type DoubleBitBinaryEvent struct {
	Index       uint32
	Flags       Flags
	Time        Timestamp
	TimeQuality TimeQuality
}

// BinaryOutputStatusStatic is a group 10 variation 2 binary output status.
type BinaryOutputStatusStatic struct {
	Index uint32
	Flags Flags
}

// BinaryOutputEvent is a group 11 event (variation 1 or 2).
type BinaryOutputEvent struct {
	Index       uint32
	Flags       Flags
	Time        Timestamp
	TimeQuality TimeQuality
}

// ControlRelayOutputBlock is a group 12 variation 1 object.
type ControlRelayOutputBlock struct {
	Index uint32
	CROB  CROB
}

// PatternMaskObject is a group 12 variation 2 or 3 pattern-mask object.
type PatternMaskObject struct {
	Index uint32
	Mask  PatternMask
}

// CounterStatic is a group 20 variation 1 or 2 counter.
type CounterStatic struct {
	Index uint32
	Flags Flags
	Value uint32
}

// CounterEvent is a group 22 event (variation 1, 2, 5 or 6).
type CounterEvent struct {
	Index       uint32
	Flags       Flags
	Value       uint32
	Time        Timestamp
	TimeQuality TimeQuality
}

// FrozenCounterStatic is a group 21 variation 1 or 2 frozen counter.
type FrozenCounterStatic struct {
	Index uint32
	Flags Flags
	Value uint32
}

// FrozenCounterEvent is a group 23 event (variation 1 or 2).
type FrozenCounterEvent struct {
	Index       uint32
	Flags       Flags
	Value       uint32
	Time        Timestamp
	TimeQuality TimeQuality
}

// AnalogInputStatic is a group 30 variation 1, 2 or 5 analog input. Value
// holds the measurement widened to float64 regardless of the variation's
// wire width; the header's Variation field records which width to use when
// re-encoding.
type AnalogInputStatic struct {
	Index uint32
	Flags Flags
	Value float64
}

// AnalogInputEvent is a group 32 event (variation 1, 2 or 5).
type AnalogInputEvent struct {
	Index       uint32
	Flags       Flags
	Value       float64
	Time        Timestamp
	TimeQuality TimeQuality
}

// AnalogOutputStatusStatic is a group 40 variation 1, 2 or 3.
type AnalogOutputStatusStatic struct {
	Index uint32
	Flags Flags
	Value float64
}

// AnalogOutputCommandInfo is a group 41 command (variation 1-4): the value
// a master asks an outstation to set, or the outstation's echo of it in a
// command response.
type AnalogOutputCommandInfo struct {
	Index  uint32
	Value  float64
	Status CommandStatus
}

// TimeAndDateInfo is a group 50 variation 1 or 3 object: an absolute time
// value (current time, or the outstation's last-recorded time).
type TimeAndDateInfo struct {
	Index uint32
	Time  Timestamp
}

// CTOInfo is a group 51 variation 1 or 2 common-time-of-occurrence object.
type CTOInfo struct {
	Time Timestamp
}

// TimeDelayInfo is a group 52 variation 1 or 2 time-delay object, used
// during the non-LAN time synchronization procedure.
type TimeDelayInfo struct {
	Index uint32
	Value uint16
}

// ClassDataMarker is a group 60 object: a zero-payload marker that a header
// is requesting (or, in a response context, has no further meaning beyond)
// one of the four event/static classes.
type ClassDataMarker struct{}

// InternalIndicationInfo is a group 80 variation 1 object: one internal
// indication bit, addressed by its IIN bit index (7 = device restart, the
// bit masters most commonly write to clear).
type InternalIndicationInfo struct {
	Index uint32
	Value bool
}

// OctetStringInfo is a group 110 or 111 object: a raw byte string whose
// length is fixed by the header's variation number (variation N objects
// are always exactly N bytes; variation 0 is illegal).
type OctetStringInfo struct {
	Index uint32
	Data  []byte
}

func decodeBinaryInputPacked(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	return BinaryInputPacked{Index: index, Value: b != 0}, nil
}

func encodeBinaryInputPacked(w *cursor.Writer, v any) error {
	p := v.(BinaryInputPacked)
	b := byte(0)
	if p.Value {
		b = 1
	}
	return w.U8(b)
}

func decodeBinaryInputStatic(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	return BinaryInputStatic{Index: index, Flags: Flags(b)}, nil
}

func encodeBinaryInputStatic(w *cursor.Writer, v any) error {
	p := v.(BinaryInputStatic)
	return w.U8(byte(p.Flags))
}

func decodeBinaryInputEvent(withTime, relative bool) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, cto *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		ev := BinaryInputEvent{Index: index, Flags: Flags(flagByte)}
		switch {
		case relative:
			offset, err := r.U16()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = cto.Resolve(offset)
		case withTime:
			t, err := r.U48()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = Timestamp(t), TimeSynchronized
		}
		return ev, nil
	}
}

func encodeBinaryInputEvent(withTime, relative bool) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		ev := v.(BinaryInputEvent)
		if err := w.U8(byte(ev.Flags)); err != nil {
			return err
		}
		switch {
		case relative:
			return w.U16(uint16(ev.Time))
		case withTime:
			return w.U48(uint64(ev.Time))
		}
		return nil
	}
}

func decodeDoubleBitStatic(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	return DoubleBitBinaryStatic{Index: index, Flags: Flags(b)}, nil
}

func encodeDoubleBitStatic(w *cursor.Writer, v any) error {
	p := v.(DoubleBitBinaryStatic)
	return w.U8(byte(p.Flags))
}

func decodeDoubleBitEvent(withTime, relative bool) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, cto *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		ev := DoubleBitBinaryEvent{Index: index, Flags: Flags(flagByte)}
		switch {
		case relative:
			offset, err := r.U16()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = cto.Resolve(offset)
		case withTime:
			t, err := r.U48()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = Timestamp(t), TimeSynchronized
		}
		return ev, nil
	}
}

func encodeDoubleBitEvent(withTime, relative bool) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		ev := v.(DoubleBitBinaryEvent)
		if err := w.U8(byte(ev.Flags)); err != nil {
			return err
		}
		switch {
		case relative:
			return w.U16(uint16(ev.Time))
		case withTime:
			return w.U48(uint64(ev.Time))
		}
		return nil
	}
}

func decodeBinaryOutputStatic(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	return BinaryOutputStatusStatic{Index: index, Flags: Flags(b)}, nil
}

func encodeBinaryOutputStatic(w *cursor.Writer, v any) error {
	p := v.(BinaryOutputStatusStatic)
	return w.U8(byte(p.Flags))
}

func decodeBinaryOutputEvent(withTime bool) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		ev := BinaryOutputEvent{Index: index, Flags: Flags(flagByte)}
		if withTime {
			t, err := r.U48()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = Timestamp(t), TimeSynchronized
		}
		return ev, nil
	}
}

func encodeBinaryOutputEvent(withTime bool) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		ev := v.(BinaryOutputEvent)
		if err := w.U8(byte(ev.Flags)); err != nil {
			return err
		}
		if withTime {
			return w.U48(uint64(ev.Time))
		}
		return nil
	}
}

func decodeCROBObject(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	c, err := decodeCROB(r)
	if err != nil {
		return nil, err
	}
	return ControlRelayOutputBlock{Index: index, CROB: c}, nil
}

func encodeCROBObject(w *cursor.Writer, v any) error {
	p := v.(ControlRelayOutputBlock)
	return encodeCROB(w, p.CROB)
}

func decodePatternMask(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	return PatternMaskObject{Index: index, Mask: PatternMask{Mask: []byte{b}}}, nil
}

func encodePatternMask(w *cursor.Writer, v any) error {
	p := v.(PatternMaskObject)
	if len(p.Mask.Mask) != 1 {
		return ErrInvalidQualifierForVariation
	}
	return w.U8(p.Mask.Mask[0])
}

func decodeCounterStatic(width int) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		value, err := readWidth(r, width)
		if err != nil {
			return nil, err
		}
		return CounterStatic{Index: index, Flags: Flags(flagByte), Value: value}, nil
	}
}

func encodeCounterStatic(width int) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		p := v.(CounterStatic)
		if err := w.U8(byte(p.Flags)); err != nil {
			return err
		}
		return writeWidth(w, width, p.Value)
	}
}

func decodeCounterEvent(width int, withTime bool) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		value, err := readWidth(r, width)
		if err != nil {
			return nil, err
		}
		ev := CounterEvent{Index: index, Flags: Flags(flagByte), Value: value}
		if withTime {
			t, err := r.U48()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = Timestamp(t), TimeSynchronized
		}
		return ev, nil
	}
}

func encodeCounterEvent(width int, withTime bool) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		ev := v.(CounterEvent)
		if err := w.U8(byte(ev.Flags)); err != nil {
			return err
		}
		if err := writeWidth(w, width, ev.Value); err != nil {
			return err
		}
		if withTime {
			return w.U48(uint64(ev.Time))
		}
		return nil
	}
}

func decodeFrozenCounterStatic(width int) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		value, err := readWidth(r, width)
		if err != nil {
			return nil, err
		}
		return FrozenCounterStatic{Index: index, Flags: Flags(flagByte), Value: value}, nil
	}
}

func encodeFrozenCounterStatic(width int) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		p := v.(FrozenCounterStatic)
		if err := w.U8(byte(p.Flags)); err != nil {
			return err
		}
		return writeWidth(w, width, p.Value)
	}
}

func decodeFrozenCounterEvent(width int, withTime bool) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		value, err := readWidth(r, width)
		if err != nil {
			return nil, err
		}
		ev := FrozenCounterEvent{Index: index, Flags: Flags(flagByte), Value: value}
		if withTime {
			t, err := r.U48()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = Timestamp(t), TimeSynchronized
		}
		return ev, nil
	}
}

func encodeFrozenCounterEvent(width int, withTime bool) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		ev := v.(FrozenCounterEvent)
		if err := w.U8(byte(ev.Flags)); err != nil {
			return err
		}
		if err := writeWidth(w, width, ev.Value); err != nil {
			return err
		}
		if withTime {
			return w.U48(uint64(ev.Time))
		}
		return nil
	}
}

// analogWidth identifies the wire representation of an analog value.
type analogWidth int

const (
	widthInt32 analogWidth = iota
	widthInt16
	widthFloat32
)

func readAnalogValue(r *cursor.Reader, w analogWidth) (float64, error) {
	switch w {
	case widthInt32:
		v, err := r.I32()
		return float64(v), err
	case widthInt16:
		v, err := r.I16()
		return float64(v), err
	case widthFloat32:
		v, err := r.F32()
		return float64(v), err
	default:
		return 0, ErrUnknownGroupVariation
	}
}

func writeAnalogValue(w *cursor.Writer, width analogWidth, v float64) error {
	switch width {
	case widthInt32:
		return w.I32(int32(v))
	case widthInt16:
		return w.I16(int16(v))
	case widthFloat32:
		return w.F32(float32(v))
	default:
		return ErrUnknownGroupVariation
	}
}

func decodeAnalogInputStatic(width analogWidth) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		value, err := readAnalogValue(r, width)
		if err != nil {
			return nil, err
		}
		return AnalogInputStatic{Index: index, Flags: Flags(flagByte), Value: value}, nil
	}
}

func encodeAnalogInputStatic(width analogWidth) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		p := v.(AnalogInputStatic)
		if err := w.U8(byte(p.Flags)); err != nil {
			return err
		}
		return writeAnalogValue(w, width, p.Value)
	}
}

func decodeAnalogInputEvent(width analogWidth, withTime bool) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		value, err := readAnalogValue(r, width)
		if err != nil {
			return nil, err
		}
		ev := AnalogInputEvent{Index: index, Flags: Flags(flagByte), Value: value}
		if withTime {
			t, err := r.U48()
			if err != nil {
				return nil, err
			}
			ev.Time, ev.TimeQuality = Timestamp(t), TimeSynchronized
		}
		return ev, nil
	}
}

func encodeAnalogInputEvent(width analogWidth, withTime bool) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		ev := v.(AnalogInputEvent)
		if err := w.U8(byte(ev.Flags)); err != nil {
			return err
		}
		if err := writeAnalogValue(w, width, ev.Value); err != nil {
			return err
		}
		if withTime {
			return w.U48(uint64(ev.Time))
		}
		return nil
	}
}

func decodeAnalogOutputStatusStatic(width analogWidth) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		flagByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		value, err := readAnalogValue(r, width)
		if err != nil {
			return nil, err
		}
		return AnalogOutputStatusStatic{Index: index, Flags: Flags(flagByte), Value: value}, nil
	}
}

func encodeAnalogOutputStatusStatic(width analogWidth) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		p := v.(AnalogOutputStatusStatic)
		if err := w.U8(byte(p.Flags)); err != nil {
			return err
		}
		return writeAnalogValue(w, width, p.Value)
	}
}

func decodeAnalogOutputCommand(width analogWidth) func(*cursor.Reader, uint32, *CTOState) (any, error) {
	return func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		value, err := readAnalogValue(r, width)
		if err != nil {
			return nil, err
		}
		status, err := r.U8()
		if err != nil {
			return nil, err
		}
		return AnalogOutputCommandInfo{Index: index, Value: value, Status: CommandStatus(status)}, nil
	}
}

func encodeAnalogOutputCommand(width analogWidth) func(*cursor.Writer, any) error {
	return func(w *cursor.Writer, v any) error {
		p := v.(AnalogOutputCommandInfo)
		if err := writeAnalogValue(w, width, p.Value); err != nil {
			return err
		}
		return w.U8(byte(p.Status))
	}
}

func decodeTimeAndDate(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	t, err := r.U48()
	if err != nil {
		return nil, err
	}
	return TimeAndDateInfo{Index: index, Time: Timestamp(t)}, nil
}

func encodeTimeAndDate(w *cursor.Writer, v any) error {
	p := v.(TimeAndDateInfo)
	return w.U48(uint64(p.Time))
}

func decodeCTOSynchronized(r *cursor.Reader, _ uint32, state *CTOState) (any, error) {
	t, err := r.U48()
	if err != nil {
		return nil, err
	}
	state.SetSynchronized(Timestamp(t))
	return CTOInfo{Time: Timestamp(t)}, nil
}

func decodeCTOUnsynchronized(r *cursor.Reader, _ uint32, state *CTOState) (any, error) {
	t, err := r.U48()
	if err != nil {
		return nil, err
	}
	state.SetUnsynchronized(Timestamp(t))
	return CTOInfo{Time: Timestamp(t)}, nil
}

func encodeCTO(w *cursor.Writer, v any) error {
	p := v.(CTOInfo)
	return w.U48(uint64(p.Time))
}

func decodeTimeDelay(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	v, err := r.U16()
	if err != nil {
		return nil, err
	}
	return TimeDelayInfo{Index: index, Value: v}, nil
}

func encodeTimeDelay(w *cursor.Writer, v any) error {
	p := v.(TimeDelayInfo)
	return w.U16(p.Value)
}

func decodeClassMarker(_ *cursor.Reader, _ uint32, _ *CTOState) (any, error) {
	return ClassDataMarker{}, nil
}

func encodeClassMarker(_ *cursor.Writer, _ any) error {
	return nil
}

func decodeInternalIndication(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	return InternalIndicationInfo{Index: index, Value: b != 0}, nil
}

func encodeInternalIndication(w *cursor.Writer, v any) error {
	p := v.(InternalIndicationInfo)
	b := byte(0)
	if p.Value {
		b = 1
	}
	return w.U8(b)
}

// octetStringCodec builds decode/encode closures for a group 110/111
// octet-string variation, whose size on the wire equals the variation
// number itself.
func octetStringCodec(size int) (func(*cursor.Reader, uint32, *CTOState) (any, error), func(*cursor.Writer, any) error) {
	decode := func(r *cursor.Reader, index uint32, _ *CTOState) (any, error) {
		data, err := r.Bytes(size)
		if err != nil {
			return nil, err
		}
		cp := make([]byte, len(data))
		copy(cp, data)
		return OctetStringInfo{Index: index, Data: cp}, nil
	}
	encode := func(w *cursor.Writer, v any) error {
		p := v.(OctetStringInfo)
		if len(p.Data) != size {
			return ErrInvalidQualifierForVariation
		}
		return w.WriteBytes(p.Data)
	}
	return decode, encode
}

func readWidth(r *cursor.Reader, width int) (uint32, error) {
	if width == 2 {
		v, err := r.U16()
		return uint32(v), err
	}
	return r.U32()
}

func writeWidth(w *cursor.Writer, width int, v uint32) error {
	if width == 2 {
		return w.U16(uint16(v))
	}
	return w.U32(v)
}
