package objects

import (
	"fmt"

	"github.com/dnp3go/dnp3/cursor"
)

// parseAddressing reads the range/count/prefix portion of a header
// immediately following its qualifier byte.
func parseAddressing(r *cursor.Reader, q Qualifier) (addressing, error) {
	switch q {
	case QualRange8:
		start, err := r.U8()
		if err != nil {
			return addressing{}, err
		}
		stop, err := r.U8()
		if err != nil {
			return addressing{}, err
		}
		return rangeAddressing(uint32(start), uint32(stop))
	case QualRange16:
		start, err := r.U16()
		if err != nil {
			return addressing{}, err
		}
		stop, err := r.U16()
		if err != nil {
			return addressing{}, err
		}
		return rangeAddressing(uint32(start), uint32(stop))
	case QualAllObjects:
		return addressing{}, nil
	case QualCount8:
		n, err := r.U8()
		if err != nil {
			return addressing{}, err
		}
		return addressing{count: int(n)}, nil
	case QualCount16:
		n, err := r.U16()
		if err != nil {
			return addressing{}, err
		}
		return addressing{count: int(n)}, nil
	case QualIndexPrefix8:
		n, err := r.U8()
		if err != nil {
			return addressing{}, err
		}
		return addressing{count: int(n), prefixed: true, prefixWidth: 1}, nil
	case QualIndexPrefix16:
		n, err := r.U16()
		if err != nil {
			return addressing{}, err
		}
		return addressing{count: int(n), prefixed: true, prefixWidth: 2}, nil
	case QualFreeFormat:
		n, err := r.U16()
		if err != nil {
			return addressing{}, err
		}
		return addressing{count: int(n), sizePrefixed: true}, nil
	default:
		return addressing{}, fmt.Errorf("%w: %s", ErrUnknownQualifier, q)
	}
}

func rangeAddressing(start, stop uint32) (addressing, error) {
	if stop < start {
		return addressing{}, ErrRangeCountMismatch
	}
	count := stop - start + 1
	if count > maxRangeCount {
		return addressing{}, ErrRangeTooLarge
	}
	indices := make([]uint32, count)
	for i := range indices {
		indices[i] = start + uint32(i)
	}
	return addressing{indices: indices, count: int(count)}, nil
}

// DecodeRequest parses a sequence of qualifier-only object headers: the
// group/variation/qualifier and addressing range, but no per-item value
// bytes. This is the shape every READ request header takes (IEEE
// 1815-2012 doesn't carry values for a read; it only names what's wanted),
// and it must not error on the infosLen==0 case a value-bearing decode
// would reject.
func DecodeRequest(data []byte) ([]ObjectHeader, error) {
	r := cursor.NewReader(data)
	var headers []ObjectHeader
	for r.Len() > 0 {
		group, err := r.U8()
		if err != nil {
			return nil, err
		}
		variation, err := r.U8()
		if err != nil {
			return nil, err
		}
		qualByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		qualifier, err := ParseQualifier(qualByte)
		if err != nil {
			return nil, err
		}
		addr, err := parseAddressing(r, qualifier)
		if err != nil {
			return nil, err
		}
		def, err := lookup(group, variation)
		if err != nil && group != 0 {
			return nil, err
		}
		kind := KindDeviceAttribute
		if def != nil {
			kind = def.Kind
			if def.AllObjectsOnly && qualifier != QualAllObjects {
				return nil, ErrInvalidQualifierForVariation
			}
			if def.ControlLike && qualifier.isRange() {
				return nil, ErrInvalidQualifierForVariation
			}
		}
		h := ObjectHeader{Group: group, Variation: variation, Qualifier: qualifier, Kind: kind}
		if addr.indices != nil {
			h.Items = make([]Item, len(addr.indices))
			for i, idx := range addr.indices {
				h.Items[i] = Item{Index: idx}
			}
		} else if addr.count > 0 && !addr.prefixed {
			h.Items = make([]Item, addr.count)
			for i := range h.Items {
				h.Items[i] = Item{Index: uint32(i)}
			}
		} else if addr.prefixed {
			// A prefixed read request (rare, but legal) still carries an
			// explicit index per item with no trailing value; consume the
			// indices so the cursor lands on the next header correctly.
			h.Items = make([]Item, addr.count)
			for i := range h.Items {
				idx, err := readPrefix(r, addr.prefixWidth)
				if err != nil {
					return nil, err
				}
				h.Items[i] = Item{Index: idx}
			}
		}
		headers = append(headers, h)
	}
	return headers, nil
}

func readPrefix(r *cursor.Reader, width int) (uint32, error) {
	if width == 2 {
		v, err := r.U16()
		return uint32(v), err
	}
	v, err := r.U8()
	return uint32(v), err
}

// DecodeResponse parses a sequence of object headers that carry real
// per-item data: solicited and unsolicited responses, and request
// fragments whose function writes values (direct operate, select,
// operate, write). cto accumulates group 51 state across the headers
// decoded from one fragment; pass a freshly Reset CTOState per fragment.
func DecodeResponse(data []byte, cto *CTOState) ([]ObjectHeader, error) {
	r := cursor.NewReader(data)
	var headers []ObjectHeader
	for r.Len() > 0 {
		group, err := r.U8()
		if err != nil {
			return nil, err
		}
		variation, err := r.U8()
		if err != nil {
			return nil, err
		}
		qualByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		qualifier, err := ParseQualifier(qualByte)
		if err != nil {
			return nil, err
		}
		addr, err := parseAddressing(r, qualifier)
		if err != nil {
			return nil, err
		}

		if group == 0 {
			h, err := decodeAttributeHeader(r, variation, qualifier, addr)
			if err != nil {
				return nil, err
			}
			headers = append(headers, h)
			continue
		}

		def, err := lookup(group, variation)
		if err != nil {
			return nil, err
		}
		if def.AllObjectsOnly && qualifier != QualAllObjects {
			return nil, ErrInvalidQualifierForVariation
		}
		if def.ControlLike && qualifier.isRange() {
			return nil, ErrInvalidQualifierForVariation
		}

		h := ObjectHeader{Group: group, Variation: variation, Qualifier: qualifier, Kind: def.Kind}
		if qualifier == QualAllObjects {
			headers = append(headers, h)
			continue
		}

		items := make([]Item, addr.count)
		for i := 0; i < addr.count; i++ {
			var index uint32
			if addr.prefixed {
				index, err = readPrefix(r, addr.prefixWidth)
				if err != nil {
					return nil, err
				}
			} else if addr.indices != nil {
				index = addr.indices[i]
			} else {
				index = uint32(i)
			}
			value, err := def.Decode(r, index, cto)
			if err != nil {
				return nil, err
			}
			items[i] = Item{Index: index, Value: value}
		}
		h.Items = items
		headers = append(headers, h)
	}
	return headers, nil
}

// decodeAttributeHeader parses a group 0 device-attribute header: always
// free-format, each item self-describing its own attribute variation.
func decodeAttributeHeader(r *cursor.Reader, _ byte, qualifier Qualifier, addr addressing) (ObjectHeader, error) {
	if qualifier != QualFreeFormat {
		return ObjectHeader{}, ErrInvalidQualifierForVariation
	}
	items := make([]Item, 0, addr.count)
	for i := 0; i < addr.count; i++ {
		size, err := r.U16()
		if err != nil {
			return ObjectHeader{}, err
		}
		if size == 0 {
			return ObjectHeader{}, ErrZeroLengthAttribute
		}
		variation, err := r.U8()
		if err != nil {
			return ObjectHeader{}, err
		}
		body, err := r.Bytes(int(size) - 1)
		if err != nil {
			return ObjectHeader{}, err
		}
		bodyReader := cursor.NewReader(body)
		attr, err := decodeAttribute(bodyReader, variation)
		if err != nil {
			return ObjectHeader{}, err
		}
		items = append(items, Item{Index: uint32(variation), Value: attr})
	}
	return ObjectHeader{Group: 0, Variation: 0, Qualifier: qualifier, Kind: KindDeviceAttribute, Items: items}, nil
}

// Encode serializes headers back to wire bytes, appending to w.
func Encode(w *cursor.Writer, headers []ObjectHeader) error {
	for _, h := range headers {
		if err := w.U8(h.Group); err != nil {
			return err
		}
		if err := w.U8(h.Variation); err != nil {
			return err
		}
		if err := w.U8(byte(h.Qualifier)); err != nil {
			return err
		}
		if err := encodeAddressing(w, h); err != nil {
			return err
		}
		if h.Group == 0 {
			if err := encodeAttributeItems(w, h.Items); err != nil {
				return err
			}
			continue
		}
		if h.Qualifier == QualAllObjects {
			continue
		}
		def, err := lookup(h.Group, h.Variation)
		if err != nil {
			return err
		}
		for _, item := range h.Items {
			if h.Qualifier == QualIndexPrefix8 {
				if err := w.U8(byte(item.Index)); err != nil {
					return err
				}
			} else if h.Qualifier == QualIndexPrefix16 {
				if err := w.U16(uint16(item.Index)); err != nil {
					return err
				}
			}
			if err := def.Encode(w, item.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeAddressing(w *cursor.Writer, h ObjectHeader) error {
	switch h.Qualifier {
	case QualRange8:
		if len(h.Items) == 0 {
			return w.U8(0)
		}
		if err := w.U8(byte(h.Items[0].Index)); err != nil {
			return err
		}
		return w.U8(byte(h.Items[len(h.Items)-1].Index))
	case QualRange16:
		if len(h.Items) == 0 {
			return w.U16(0)
		}
		if err := w.U16(uint16(h.Items[0].Index)); err != nil {
			return err
		}
		return w.U16(uint16(h.Items[len(h.Items)-1].Index))
	case QualAllObjects:
		return nil
	case QualCount8, QualIndexPrefix8:
		return w.U8(byte(len(h.Items)))
	case QualCount16, QualIndexPrefix16:
		return w.U16(uint16(len(h.Items)))
	case QualFreeFormat:
		return w.U16(uint16(len(h.Items)))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownQualifier, h.Qualifier)
	}
}

func encodeAttributeItems(w *cursor.Writer, items []Item) error {
	for _, item := range items {
		attr := item.Value.(AttributeInfo)
		size := 3 + len(attr.Raw) // variation(1) + dataType(1) + length(1) + raw
		if err := w.U16(uint16(size)); err != nil {
			return err
		}
		if err := w.U8(attr.Variation); err != nil {
			return err
		}
		if err := encodeAttribute(w, attr); err != nil {
			return err
		}
	}
	return nil
}
