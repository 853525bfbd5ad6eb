package securechannel

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"

	"github.com/enceve/crypto/cmac"

	"github.com/riftlabs/yubihsm-go/commands"
)

// ChainMAC computes one link of the MAC chain: CMAC(key, chainValue ||
// header || sessionID || payload), where header is the 1-byte command/
// response code (ResponseFlag included on the response side) followed by
// the 2-byte body length. It returns the full 16-byte CMAC output; the
// caller keeps the first 8 bytes as the transmitted tag and the full value
// as the next chaining value. Exported so mockhsm can compute the
// device side of the same chain without duplicating the construction.
func ChainMAC(key []byte, chainValue []byte, code commands.Code, bodyLength uint16, sessionID uint8, payload []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	mac, err := cmac.New(block)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	buf.Write(chainValue)
	buf.WriteByte(byte(code))
	binary.Write(buf, binary.BigEndian, bodyLength)
	buf.WriteByte(sessionID)
	buf.Write(payload)

	mac.Write(buf.Bytes())
	return mac.Sum(nil), nil
}
