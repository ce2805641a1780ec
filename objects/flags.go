package objects

// Flags is the one-byte quality/state flag field carried by most
// measurement variations. Bit 5 and bit 6 carry a different name depending
// on the measurement kind (chatter-filter/rollover/over-range, and
// discontinuity/reference-error respectively); bit 7 carries the binary
// point's boolean state for the flag-carrying binary variations, or the
// high bit of a double-bit binary's two-bit state.
type Flags byte

// Bits shared by every measurement kind.
const (
	Online       Flags = 1 << 0
	Restart      Flags = 1 << 1
	CommLost     Flags = 1 << 2
	RemoteForced Flags = 1 << 3
	LocalForced  Flags = 1 << 4
)

// Bit 5, named per measurement kind. They alias the same bit because only
// one interpretation ever applies to a given object's group.
const (
	ChatterFilter Flags = 1 << 5 // binary/double-bit binary input
	Rollover      Flags = 1 << 5 // counter, frozen counter
	OverRange     Flags = 1 << 5 // analog input/output
)

// Bit 6, named per measurement kind.
const (
	Discontinuity Flags = 1 << 6 // counter, frozen counter
	ReferenceErr  Flags = 1 << 6 // analog input/output
)

// BinaryStateBit is bit 7: the point's boolean state, for the binary and
// binary-output variations that carry their value inside the flag byte
// instead of a separate value field.
const BinaryStateBit Flags = 1 << 7

// State reports the boolean value packed into bit 7 of a binary-kind flag
// byte.
func (f Flags) State() bool {
	return f&BinaryStateBit != 0
}

// DoubleBitState is the enumerated state of a double-bit binary point,
// packed into bits 6-7.
type DoubleBitState byte

const (
	DoubleBitIntermediate DoubleBitState = 0
	DoubleBitOff          DoubleBitState = 1
	DoubleBitOn           DoubleBitState = 2
	DoubleBitIndeterminate DoubleBitState = 3
)

// DoubleBit extracts the two-bit state from bits 6-7 of a double-bit binary
// flag byte.
func (f Flags) DoubleBit() DoubleBitState {
	return DoubleBitState((f >> 6) & 0x03)
}

// WithDoubleBit returns f with bits 6-7 replaced by state.
func (f Flags) WithDoubleBit(state DoubleBitState) Flags {
	return (f &^ 0xC0) | Flags(state)<<6
}

// WithState returns f with bit 7 set or cleared to v.
func (f Flags) WithState(v bool) Flags {
	if v {
		return f | BinaryStateBit
	}
	return f &^ BinaryStateBit
}

// IsOnline reports bit 0.
func (f Flags) IsOnline() bool { return f&Online != 0 }
