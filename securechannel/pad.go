package securechannel

import (
	"bytes"
	"crypto/aes"
)

// Pad applies the SCP03 / ISO 7816-4 padding scheme: an 0x80 byte followed
// by as many 0x00 bytes as needed to reach a multiple of the AES block
// size. A message already block-aligned is left untouched (SCP03 never
// appends a full block of padding). Exported so mockhsm's device-side
// codec can apply the identical scheme.
func Pad(src []byte) []byte {
	if len(src)%aes.BlockSize == 0 {
		return src
	}

	padding := aes.BlockSize - len(src)%aes.BlockSize - 1
	out := make([]byte, 0, len(src)+padding+1)
	out = append(out, src...)
	out = append(out, 0x80)
	out = append(out, bytes.Repeat([]byte{0x00}, padding)...)
	return out
}

// Unpad strips SCP03/ISO 7816-4 padding, scanning back from the end of src
// for the 0x80 marker. A message with no padding marker (the aligned case)
// is returned unchanged.
func Unpad(src []byte) []byte {
	if len(src) == 0 {
		return src
	}
	for i := len(src) - 1; i >= 0 && i >= len(src)-aes.BlockSize; i-- {
		switch src[i] {
		case 0x00:
			continue
		case 0x80:
			return src[:i]
		default:
			return src
		}
	}
	return src
}
