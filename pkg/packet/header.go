package packet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Header precedes the message bytes of every ordinary packet.
type Header struct {
	Tag     Tag
	AuthTag []byte
}

// EncodeHeader returns tag || rlp(authTag).
func EncodeHeader(h Header) ([]byte, error) {
	if len(h.AuthTag) != AuthTagLength {
		return nil, fmt.Errorf("invalid auth tag length %d", len(h.AuthTag))
	}
	enc, err := rlp.EncodeToBytes(h.AuthTag)
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth tag: %w", err)
	}
	return append(h.Tag[:], enc...), nil
}

// DecodeHeader splits a packet into its header and the bytes that follow.
func DecodeHeader(b []byte) (Header, []byte, error) {
	var h Header
	if len(b) < TagLength {
		return h, nil, fmt.Errorf("%w: packet too short (%d bytes)", ErrMalformed, len(b))
	}
	kind, content, rest, err := rlp.Split(b[TagLength:])
	if err != nil {
		return h, nil, fmt.Errorf("%w: failed to read auth tag: %v", ErrMalformed, err)
	}
	if kind != rlp.String || len(content) != AuthTagLength {
		return h, nil, fmt.Errorf("%w: invalid auth tag", ErrMalformed)
	}
	copy(h.Tag[:], b[:TagLength])
	h.AuthTag = append([]byte(nil), content...)
	return h, rest, nil
}
