package objects

import "github.com/dnp3go/dnp3/cursor"

// Device attribute data-type tags, IEEE 1815-2012 table 11-1.
const (
	AttrTypeVisibleString  = 0x01
	AttrTypeUnsignedInt    = 0x02
	AttrTypeSignedInt      = 0x03
	AttrTypeFloatingPoint  = 0x04
	AttrTypeOctetString    = 0x05
	AttrTypeBitString      = 0x06
	AttrTypeAttrList       = 0x07
	AttrTypeExtAttrList    = 0x08
)

// Device attribute variation numbers this package recognizes.
const (
	AttrVarAllAttributesRequest = 248
	AttrVarFloatingPointSet     = 250
	AttrVarManufacturerName     = 252
	AttrVarDeviceProductName    = 253
	AttrVarListOfAttributes     = 254
	AttrVarListOfVariations     = 255
)

// AttributeInfo is a group 0 device-attribute object: the attribute
// variation being described, its declared data-type tag, and the raw
// encoded value. The typed accessors interpret Raw according to DataType.
type AttributeInfo struct {
	Variation byte
	DataType  byte
	Raw       []byte
}

// String interprets Raw as a visible-character string (data type 0x01).
func (a AttributeInfo) String() (string, bool) {
	if a.DataType != AttrTypeVisibleString {
		return "", false
	}
	return string(a.Raw), true
}

// Float interprets Raw as a 4- or 8-byte IEEE-754 float (data type 0x04).
func (a AttributeInfo) Float() (float64, bool) {
	if a.DataType != AttrTypeFloatingPoint {
		return 0, false
	}
	r := cursor.NewReader(a.Raw)
	switch len(a.Raw) {
	case 4:
		v, err := r.F32()
		return float64(v), err == nil
	case 8:
		v, err := r.F64()
		return v, err == nil
	default:
		return 0, false
	}
}

// UnsignedInt interprets Raw as a little-endian unsigned integer of 1, 2
// or 4 bytes (data type 0x02).
func (a AttributeInfo) UnsignedInt() (uint32, bool) {
	if a.DataType != AttrTypeUnsignedInt {
		return 0, false
	}
	var v uint32
	for i := len(a.Raw) - 1; i >= 0; i-- {
		v = v<<8 | uint32(a.Raw[i])
	}
	return v, true
}

// decodeAttribute parses one free-format device-attribute object: a
// 1-byte data-type tag, a 1-byte length, then that many bytes of value.
func decodeAttribute(r *cursor.Reader, variation byte) (AttributeInfo, error) {
	dataType, err := r.U8()
	if err != nil {
		return AttributeInfo{}, err
	}
	length, err := r.U8()
	if err != nil {
		return AttributeInfo{}, err
	}
	raw, err := r.Bytes(int(length))
	if err != nil {
		return AttributeInfo{}, err
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return AttributeInfo{Variation: variation, DataType: dataType, Raw: cp}, nil
}

// encodeAttribute serializes one device-attribute object in the same
// type-tag/length/value shape decodeAttribute reads.
func encodeAttribute(w *cursor.Writer, a AttributeInfo) error {
	if err := w.U8(a.DataType); err != nil {
		return err
	}
	if len(a.Raw) > 255 {
		return ErrInvalidQualifierForVariation
	}
	if err := w.U8(byte(len(a.Raw))); err != nil {
		return err
	}
	return w.WriteBytes(a.Raw)
}
