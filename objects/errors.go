// Package objects implements the DNP3 application-layer object model: the
// group/variation catalog, the eight qualifier codes that address object
// instances within a header, and the fixed-format binary encoding each
// variation uses on the wire.
package objects

import "errors"

var (
	// ErrUnknownGroupVariation is returned when a header names a
	// (group, variation) pair this package does not have a codec for.
	ErrUnknownGroupVariation = errors.New("objects: unknown group/variation")
	// ErrUnknownQualifier is returned for a qualifier code byte outside the
	// eight defined by IEEE 1815-2012 table 4.
	ErrUnknownQualifier = errors.New("objects: unknown qualifier code")
	// ErrInvalidQualifierForVariation is returned when a header combines a
	// variation with a qualifier it cannot legally carry (a range qualifier
	// on a control object, any qualifier but all-objects on a class-scan
	// object, and so on).
	ErrInvalidQualifierForVariation = errors.New("objects: qualifier not valid for this variation")
	// ErrZeroLengthOctetString is returned for group 110/111 variation 0,
	// which IEEE 1815-2012 reserves and forbids as an actual object length.
	ErrZeroLengthOctetString = errors.New("objects: octet string variation 0 is illegal")
	// ErrEmptyRequestBody describes a header that claims objects when the
	// fragment ends before any are present. No decoder in this package
	// returns it: DecodeResponse fails on such a fragment with the error
	// from the cursor read instead.
	ErrEmptyRequestBody = errors.New("objects: header claims objects but none follow")
	// ErrRangeCountMismatch is returned when a range header's stop index is
	// smaller than its start index.
	ErrRangeCountMismatch = errors.New("objects: range stop precedes start")
	// ErrRangeTooLarge guards against a corrupt or hostile range header
	// that would otherwise make the decoder allocate an enormous slice.
	ErrRangeTooLarge = errors.New("objects: range exceeds maximum point count")
	// ErrUnsupportedFileTransfer marks group 70 (file transfer) objects:
	// the object header/qualifier machinery recognizes the group number
	// but this package carries no codec for it.
	ErrUnsupportedFileTransfer = errors.New("objects: file transfer objects are not supported")
	// ErrZeroLengthAttribute is returned for a free-format device-attribute
	// item whose size prefix is 0: the size includes the variation byte
	// that already precedes the item body, so 0 cannot encode even an
	// empty body.
	ErrZeroLengthAttribute = errors.New("objects: device attribute item size is 0")
)

// maxRangeCount bounds how many indices a single range or count qualifier
// may expand to. IEEE 1815-2012 headers are 16-bit at widest, so 65536 is a
// generous ceiling that still rejects a corrupted LEN field from causing an
// unbounded allocation.
const maxRangeCount = 65536
