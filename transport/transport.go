// Package transport implements the DNP3 transport function: segmentation of
// an application fragment into link user-data payloads on emit, and
// reassembly of those payloads back into a fragment on receive.
package transport

import (
	"errors"
)

// MinFragmentSize and MaxFragmentSize bound the configurable maximum
// application-fragment size.
const (
	MinFragmentSize = 249
	MaxFragmentSize = 2048
	// DefaultFragmentSize is used when a configuration leaves MaxFragment
	// unset.
	DefaultFragmentSize = 2048

	// segmentPayloadSize is the most application-fragment bytes one
	// transport segment can carry after its 1-byte transport header.
	segmentPayloadSize = 249
)

var (
	// ErrSequenceBroken is returned when reassembly observes a sequence
	// number that does not increment mod 64 from the previous segment.
	ErrSequenceBroken = errors.New("transport: sequence discontinuity")
	// ErrMissingFIR is returned when the first segment of a new fragment
	// does not carry FIR.
	ErrMissingFIR = errors.New("transport: first segment missing FIR")
	// ErrFragmentTooLarge is returned when reassembly would exceed the
	// configured maximum fragment size.
	ErrFragmentTooLarge = errors.New("transport: fragment exceeds configured maximum")
	// ErrEmptySegment is returned for a zero-length transport segment
	// (header byte with no payload is allowed only as a pathological
	// corner case the reassembler still must not panic on).
	ErrEmptySegment = errors.New("transport: empty segment")
)

// Header is the one-byte transport header preceding every link user-data
// payload.
type Header struct {
	FIR bool
	FIN bool
	Seq byte // 6-bit sequence, 0..63
}

// ParseHeader decodes a transport header byte.
func ParseHeader(b byte) Header {
	return Header{
		FIR: b&0x80 != 0,
		FIN: b&0x40 != 0,
		Seq: b & 0x3F,
	}
}

// Value encodes the header back to a byte.
func (h Header) Value() byte {
	v := h.Seq & 0x3F
	if h.FIR {
		v |= 0x80
	}
	if h.FIN {
		v |= 0x40
	}
	return v
}

// Segment splits an application fragment into a sequence of transport
// segments, each sized to fit in one link frame's user-data payload. The
// first segment carries FIR, the last carries FIN; a single-segment
// fragment carries both. The starting sequence number is startSeq (mod 64);
// callers own sequence-number bookkeeping across calls.
func Segment(fragment []byte, startSeq byte) [][]byte {
	if len(fragment) == 0 {
		return [][]byte{{Header{FIR: true, FIN: true, Seq: startSeq & 0x3F}.Value()}}
	}

	var segments [][]byte
	seq := startSeq & 0x3F
	for offset := 0; offset < len(fragment); offset += segmentPayloadSize {
		end := offset + segmentPayloadSize
		if end > len(fragment) {
			end = len(fragment)
		}
		h := Header{
			FIR: offset == 0,
			FIN: end == len(fragment),
			Seq: seq,
		}
		seg := make([]byte, 0, 1+end-offset)
		seg = append(seg, h.Value())
		seg = append(seg, fragment[offset:end]...)
		segments = append(segments, seg)
		seq = (seq + 1) & 0x3F
	}
	return segments
}

// Reassembler accumulates transport segments into complete application
// fragments. It is not safe for concurrent use.
type Reassembler struct {
	maxFragmentSize int

	inProgress bool
	expectSeq  byte
	buf        []byte
}

// NewReassembler creates a Reassembler bounded to maxFragmentSize bytes
// (clamped to [MinFragmentSize, MaxFragmentSize]; 0 selects
// DefaultFragmentSize).
func NewReassembler(maxFragmentSize int) *Reassembler {
	if maxFragmentSize == 0 {
		maxFragmentSize = DefaultFragmentSize
	}
	if maxFragmentSize < MinFragmentSize {
		maxFragmentSize = MinFragmentSize
	}
	if maxFragmentSize > MaxFragmentSize {
		maxFragmentSize = MaxFragmentSize
	}
	return &Reassembler{maxFragmentSize: maxFragmentSize}
}

// Feed processes one received transport segment. It returns (fragment,
// true, nil) when seg completes a fragment (FIN observed), (nil, false,
// nil) when more segments are needed, or a non-nil error when the segment
// violates a reassembly rule; any violation aborts the in-progress
// fragment, and the caller should discard and wait for the next FIR to
// resynchronize.
func (r *Reassembler) Feed(seg []byte) ([]byte, bool, error) {
	if len(seg) == 0 {
		r.abort()
		return nil, false, ErrEmptySegment
	}
	h := ParseHeader(seg[0])
	payload := seg[1:]

	if h.FIR {
		r.buf = r.buf[:0]
		r.inProgress = true
		r.expectSeq = h.Seq
	} else if !r.inProgress {
		return nil, false, ErrMissingFIR
	} else if h.Seq != (r.expectSeq+1)&0x3F {
		r.abort()
		return nil, false, ErrSequenceBroken
	}
	r.expectSeq = h.Seq

	if len(r.buf)+len(payload) > r.maxFragmentSize {
		r.abort()
		return nil, false, ErrFragmentTooLarge
	}
	r.buf = append(r.buf, payload...)

	if h.FIN {
		out := make([]byte, len(r.buf))
		copy(out, r.buf)
		r.abort()
		return out, true, nil
	}
	return nil, false, nil
}

// abort discards any in-progress fragment state.
func (r *Reassembler) abort() {
	r.inProgress = false
	r.buf = r.buf[:0]
}

// InProgress reports whether a fragment is partway through reassembly.
func (r *Reassembler) InProgress() bool {
	return r.inProgress
}
