package objects

import "github.com/dnp3go/dnp3/cursor"

// OpType is the low nibble of a CROB control-code byte: the operation the
// output should perform.
type OpType byte

const (
	OpNul           OpType = 0
	OpPulseOn       OpType = 1
	OpPulseOff      OpType = 2
	OpLatchOn       OpType = 3
	OpLatchOff      OpType = 4
)

// TripCloseCode is the trip/close qualifier packed into the top two bits of
// a CROB control-code byte.
type TripCloseCode byte

const (
	TCCNul   TripCloseCode = 0
	TCCClose TripCloseCode = 1
	TCCTrip  TripCloseCode = 2
)

// ControlCode is the first byte of a Control Relay Output Block: operation
// type, queue and clear flags, and trip/close qualifier.
type ControlCode struct {
	Op    OpType
	Queue bool
	Clear bool
	TCC   TripCloseCode
}

// ParseControlCode decodes a CROB control-code byte.
func ParseControlCode(b byte) ControlCode {
	return ControlCode{
		Op:    OpType(b & 0x0F),
		Queue: b&0x10 != 0,
		Clear: b&0x20 != 0,
		TCC:   TripCloseCode((b >> 6) & 0x03),
	}
}

// Value encodes the control code back to a byte.
func (c ControlCode) Value() byte {
	v := byte(c.Op) & 0x0F
	if c.Queue {
		v |= 0x10
	}
	if c.Clear {
		v |= 0x20
	}
	v |= byte(c.TCC) << 6
	return v
}

// CommandStatus is the outstation's one-byte report of how it processed a
// control or analog-output command, echoed back in the command's response
// object.
type CommandStatus byte

const (
	StatusSuccess            CommandStatus = 0
	StatusTimeout             CommandStatus = 1
	StatusNoSelect            CommandStatus = 2
	StatusFormatError         CommandStatus = 3
	StatusNotSupported        CommandStatus = 4
	StatusAlreadyActive       CommandStatus = 5
	StatusHardwareError       CommandStatus = 6
	StatusLocal               CommandStatus = 7
	StatusTooManyOps          CommandStatus = 8
	StatusNotAuthorized       CommandStatus = 9
	StatusAutomationInhibit   CommandStatus = 10
	StatusProcessingLimited   CommandStatus = 11
	StatusOutOfRange          CommandStatus = 12
	StatusDownstreamLocal     CommandStatus = 13
	StatusAlreadyComplete     CommandStatus = 14
	StatusBlocked             CommandStatus = 15
	StatusCancelled           CommandStatus = 16
	StatusBlockedOtherMaster  CommandStatus = 17
	StatusDownstreamFail      CommandStatus = 18
	StatusNonParticipating    CommandStatus = 126
	StatusUnknown             CommandStatus = 127
)

// CROB is a group 12 variation 1 Control Relay Output Block: the object
// both masters send to request an output operation and outstations echo
// back (status set, times preserved) in their response.
type CROB struct {
	Code    ControlCode
	Count   byte
	OnTime  uint32
	OffTime uint32
	Status  CommandStatus
}

const crobSize = 11

func decodeCROB(r *cursor.Reader) (CROB, error) {
	codeByte, err := r.U8()
	if err != nil {
		return CROB{}, err
	}
	count, err := r.U8()
	if err != nil {
		return CROB{}, err
	}
	onTime, err := r.U32()
	if err != nil {
		return CROB{}, err
	}
	offTime, err := r.U32()
	if err != nil {
		return CROB{}, err
	}
	status, err := r.U8()
	if err != nil {
		return CROB{}, err
	}
	return CROB{
		Code:    ParseControlCode(codeByte),
		Count:   count,
		OnTime:  onTime,
		OffTime: offTime,
		Status:  CommandStatus(status),
	}, nil
}

func encodeCROB(w *cursor.Writer, c CROB) error {
	if err := w.U8(c.Code.Value()); err != nil {
		return err
	}
	if err := w.U8(c.Count); err != nil {
		return err
	}
	if err := w.U32(c.OnTime); err != nil {
		return err
	}
	if err := w.U32(c.OffTime); err != nil {
		return err
	}
	return w.U8(byte(c.Status))
}

// PatternMask is a group 12 variation 2 or 3 pattern-control object: a raw
// bitmask the outstation applies against previously latched CROB outputs.
// Full pattern-mask semantics are out of scope; the bytes are preserved
// verbatim for a higher layer that understands the local output mapping.
type PatternMask struct {
	Mask []byte
}

// AnalogOutput32 is a group 41 variation 1 analog output command (32-bit
// signed value) or its echo in a command response.
type AnalogOutput32 struct {
	Value  int32
	Status CommandStatus
}

// AnalogOutput16 is group 41 variation 2 (16-bit signed value).
type AnalogOutput16 struct {
	Value  int16
	Status CommandStatus
}

// AnalogOutputFloat is group 41 variation 3 (single-precision float).
type AnalogOutputFloat struct {
	Value  float32
	Status CommandStatus
}

// AnalogOutputDouble is group 41 variation 4 (double-precision float).
type AnalogOutputDouble struct {
	Value  float64
	Status CommandStatus
}
