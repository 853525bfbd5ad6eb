package wire

import "errors"

// Errors returned by Reader/Writer, matching the codec's closed error set:
// a truncated read, leftover bytes after a fixed-layout decode, or an
// out-of-range tag for an enum field.
var (
	ErrUnexpectedEOF = errors.New("wire: unexpected end of buffer")
	ErrTrailingBytes = errors.New("wire: trailing bytes after decode")
	ErrInvalidTag    = errors.New("wire: invalid enum tag")
	ErrFieldTooLong  = errors.New("wire: fixed-width field value too long")
)
