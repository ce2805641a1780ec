package objects

import (
	"fmt"

	"github.com/dnp3go/dnp3/cursor"
)

// Kind names the measurement/object category a header's items decode into,
// one entry per Visitor method.
type Kind int

const (
	KindBinaryInputPacked Kind = iota
	KindBinaryInputStatic
	KindBinaryInputEvent
	KindDoubleBitBinaryStatic
	KindDoubleBitBinaryEvent
	KindBinaryOutputStatic
	KindBinaryOutputEvent
	KindCROB
	KindPatternMask
	KindCounterStatic
	KindCounterEvent
	KindFrozenCounterStatic
	KindFrozenCounterEvent
	KindAnalogInputStatic
	KindAnalogInputEvent
	KindAnalogOutputStatusStatic
	KindAnalogOutputCommand
	KindTimeAndDate
	KindCTO
	KindTimeDelay
	KindClassData
	KindInternalIndication
	KindOctetString
	KindDeviceAttribute
)

type itemDecodeFunc func(r *cursor.Reader, index uint32, cto *CTOState) (any, error)
type itemEncodeFunc func(w *cursor.Writer, value any) error

// variationDef describes one (group, variation) pair: its fixed wire size,
// measurement kind, per-item codec, and which qualifiers may legally
// address it.
type variationDef struct {
	Kind           Kind
	Size           int // bytes per object; -1 for group 110/111, sized by the variation number itself
	Decode         itemDecodeFunc
	Encode         itemEncodeFunc
	AllObjectsOnly bool // true for group 60 class-scan markers
	ControlLike    bool // true for CROB/analog-output commands: forbids range qualifiers
}

type variationKey struct {
	Group, Variation byte
}

var registry = map[variationKey]*variationDef{}

func register(group, variation byte, def variationDef) {
	registry[variationKey{group, variation}] = &def
}

func lookup(group, variation byte) (*variationDef, error) {
	if group == 110 || group == 111 {
		return octetStringDef(group, variation)
	}
	d, ok := registry[variationKey{group, variation}]
	if !ok {
		if group == 70 {
			return nil, ErrUnsupportedFileTransfer
		}
		return nil, fmt.Errorf("%w: group %d variation %d", ErrUnknownGroupVariation, group, variation)
	}
	return d, nil
}

// octetStringDef builds the group 110/111 variation definition on demand:
// the object size on the wire equals the variation number, so it cannot be
// precomputed into a static table entry.
func octetStringDef(group, variation byte) (*variationDef, error) {
	if variation == 0 {
		return nil, ErrZeroLengthOctetString
	}
	decode, encode := octetStringCodec(int(variation))
	return &variationDef{
		Kind:   KindOctetString,
		Size:   int(variation),
		Decode: decode,
		Encode: encode,
	}, nil
}

func init() {
	register(1, 1, variationDef{Kind: KindBinaryInputPacked, Size: 1, Decode: decodeBinaryInputPacked, Encode: encodeBinaryInputPacked})
	register(1, 2, variationDef{Kind: KindBinaryInputStatic, Size: 1, Decode: decodeBinaryInputStatic, Encode: encodeBinaryInputStatic})

	register(2, 1, variationDef{Kind: KindBinaryInputEvent, Size: 1, Decode: decodeBinaryInputEvent(false, false), Encode: encodeBinaryInputEvent(false, false)})
	register(2, 2, variationDef{Kind: KindBinaryInputEvent, Size: 7, Decode: decodeBinaryInputEvent(true, false), Encode: encodeBinaryInputEvent(true, false)})
	register(2, 3, variationDef{Kind: KindBinaryInputEvent, Size: 3, Decode: decodeBinaryInputEvent(false, true), Encode: encodeBinaryInputEvent(false, true)})

	register(3, 2, variationDef{Kind: KindDoubleBitBinaryStatic, Size: 1, Decode: decodeDoubleBitStatic, Encode: encodeDoubleBitStatic})

	register(4, 1, variationDef{Kind: KindDoubleBitBinaryEvent, Size: 1, Decode: decodeDoubleBitEvent(false, false), Encode: encodeDoubleBitEvent(false, false)})
	register(4, 2, variationDef{Kind: KindDoubleBitBinaryEvent, Size: 7, Decode: decodeDoubleBitEvent(true, false), Encode: encodeDoubleBitEvent(true, false)})
	register(4, 3, variationDef{Kind: KindDoubleBitBinaryEvent, Size: 3, Decode: decodeDoubleBitEvent(false, true), Encode: encodeDoubleBitEvent(false, true)})

	register(10, 2, variationDef{Kind: KindBinaryOutputStatic, Size: 1, Decode: decodeBinaryOutputStatic, Encode: encodeBinaryOutputStatic})

	register(11, 1, variationDef{Kind: KindBinaryOutputEvent, Size: 1, Decode: decodeBinaryOutputEvent(false), Encode: encodeBinaryOutputEvent(false)})
	register(11, 2, variationDef{Kind: KindBinaryOutputEvent, Size: 7, Decode: decodeBinaryOutputEvent(true), Encode: encodeBinaryOutputEvent(true)})

	register(12, 1, variationDef{Kind: KindCROB, Size: crobSize, Decode: decodeCROBObject, Encode: encodeCROBObject, ControlLike: true})
	register(12, 2, variationDef{Kind: KindPatternMask, Size: 1, Decode: decodePatternMask, Encode: encodePatternMask, ControlLike: true})
	register(12, 3, variationDef{Kind: KindPatternMask, Size: 1, Decode: decodePatternMask, Encode: encodePatternMask, ControlLike: true})

	register(20, 1, variationDef{Kind: KindCounterStatic, Size: 5, Decode: decodeCounterStatic(4), Encode: encodeCounterStatic(4)})
	register(20, 2, variationDef{Kind: KindCounterStatic, Size: 3, Decode: decodeCounterStatic(2), Encode: encodeCounterStatic(2)})

	register(21, 1, variationDef{Kind: KindFrozenCounterStatic, Size: 5, Decode: decodeFrozenCounterStatic(4), Encode: encodeFrozenCounterStatic(4)})
	register(21, 2, variationDef{Kind: KindFrozenCounterStatic, Size: 3, Decode: decodeFrozenCounterStatic(2), Encode: encodeFrozenCounterStatic(2)})

	register(22, 1, variationDef{Kind: KindCounterEvent, Size: 5, Decode: decodeCounterEvent(4, false), Encode: encodeCounterEvent(4, false)})
	register(22, 2, variationDef{Kind: KindCounterEvent, Size: 3, Decode: decodeCounterEvent(2, false), Encode: encodeCounterEvent(2, false)})
	register(22, 5, variationDef{Kind: KindCounterEvent, Size: 11, Decode: decodeCounterEvent(4, true), Encode: encodeCounterEvent(4, true)})
	register(22, 6, variationDef{Kind: KindCounterEvent, Size: 9, Decode: decodeCounterEvent(2, true), Encode: encodeCounterEvent(2, true)})

	register(23, 1, variationDef{Kind: KindFrozenCounterEvent, Size: 5, Decode: decodeFrozenCounterEvent(4, false), Encode: encodeFrozenCounterEvent(4, false)})
	register(23, 2, variationDef{Kind: KindFrozenCounterEvent, Size: 3, Decode: decodeFrozenCounterEvent(2, false), Encode: encodeFrozenCounterEvent(2, false)})

	register(30, 1, variationDef{Kind: KindAnalogInputStatic, Size: 5, Decode: decodeAnalogInputStatic(widthInt32), Encode: encodeAnalogInputStatic(widthInt32)})
	register(30, 2, variationDef{Kind: KindAnalogInputStatic, Size: 3, Decode: decodeAnalogInputStatic(widthInt16), Encode: encodeAnalogInputStatic(widthInt16)})
	register(30, 5, variationDef{Kind: KindAnalogInputStatic, Size: 5, Decode: decodeAnalogInputStatic(widthFloat32), Encode: encodeAnalogInputStatic(widthFloat32)})

	register(32, 1, variationDef{Kind: KindAnalogInputEvent, Size: 5, Decode: decodeAnalogInputEvent(widthInt32, false), Encode: encodeAnalogInputEvent(widthInt32, false)})
	register(32, 2, variationDef{Kind: KindAnalogInputEvent, Size: 3, Decode: decodeAnalogInputEvent(widthInt16, false), Encode: encodeAnalogInputEvent(widthInt16, false)})
	register(32, 5, variationDef{Kind: KindAnalogInputEvent, Size: 5, Decode: decodeAnalogInputEvent(widthFloat32, false), Encode: encodeAnalogInputEvent(widthFloat32, false)})

	register(40, 1, variationDef{Kind: KindAnalogOutputStatusStatic, Size: 5, Decode: decodeAnalogOutputStatusStatic(widthInt32), Encode: encodeAnalogOutputStatusStatic(widthInt32)})
	register(40, 2, variationDef{Kind: KindAnalogOutputStatusStatic, Size: 3, Decode: decodeAnalogOutputStatusStatic(widthInt16), Encode: encodeAnalogOutputStatusStatic(widthInt16)})
	register(40, 3, variationDef{Kind: KindAnalogOutputStatusStatic, Size: 5, Decode: decodeAnalogOutputStatusStatic(widthFloat32), Encode: encodeAnalogOutputStatusStatic(widthFloat32)})

	register(41, 1, variationDef{Kind: KindAnalogOutputCommand, Size: 5, Decode: decodeAnalogOutputCommand(widthInt32), Encode: encodeAnalogOutputCommand(widthInt32), ControlLike: true})
	register(41, 2, variationDef{Kind: KindAnalogOutputCommand, Size: 3, Decode: decodeAnalogOutputCommand(widthInt16), Encode: encodeAnalogOutputCommand(widthInt16), ControlLike: true})
	register(41, 3, variationDef{Kind: KindAnalogOutputCommand, Size: 5, Decode: decodeAnalogOutputCommand(widthFloat32), Encode: encodeAnalogOutputCommand(widthFloat32), ControlLike: true})

	register(50, 1, variationDef{Kind: KindTimeAndDate, Size: 6, Decode: decodeTimeAndDate, Encode: encodeTimeAndDate})
	register(50, 3, variationDef{Kind: KindTimeAndDate, Size: 6, Decode: decodeTimeAndDate, Encode: encodeTimeAndDate})

	register(51, 1, variationDef{Kind: KindCTO, Size: 6, Decode: decodeCTOSynchronized, Encode: encodeCTO})
	register(51, 2, variationDef{Kind: KindCTO, Size: 6, Decode: decodeCTOUnsynchronized, Encode: encodeCTO})

	register(52, 1, variationDef{Kind: KindTimeDelay, Size: 2, Decode: decodeTimeDelay, Encode: encodeTimeDelay})
	register(52, 2, variationDef{Kind: KindTimeDelay, Size: 2, Decode: decodeTimeDelay, Encode: encodeTimeDelay})

	register(60, 1, variationDef{Kind: KindClassData, Size: 0, Decode: decodeClassMarker, Encode: encodeClassMarker, AllObjectsOnly: true})
	register(60, 2, variationDef{Kind: KindClassData, Size: 0, Decode: decodeClassMarker, Encode: encodeClassMarker, AllObjectsOnly: true})
	register(60, 3, variationDef{Kind: KindClassData, Size: 0, Decode: decodeClassMarker, Encode: encodeClassMarker, AllObjectsOnly: true})
	register(60, 4, variationDef{Kind: KindClassData, Size: 0, Decode: decodeClassMarker, Encode: encodeClassMarker, AllObjectsOnly: true})

	register(80, 1, variationDef{Kind: KindInternalIndication, Size: 1, Decode: decodeInternalIndication, Encode: encodeInternalIndication})
}
