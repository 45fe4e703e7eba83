package packet

import (
	"bytes"
	"fmt"

	"github.com/busybox42/discv5/pkg/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// Whoareyou is the challenge sent in answer to a packet that could not
// be decrypted. Token echoes the auth tag of that packet.
type Whoareyou struct {
	Token   []byte
	IDNonce []byte
	EnrSeq  uint64
}

// EncodeWhoareyou returns magic(dest) || rlp([token, id-nonce, enr-seq]).
func EncodeWhoareyou(dest types.NodeID, w Whoareyou) ([]byte, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	body, err := rlp.EncodeToBytes(&w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode whoareyou: %w", err)
	}
	magic := MakeMagic(dest)
	return append(magic[:], body...), nil
}

// IsWhoareyou reports whether b starts with the magic addressed to dest.
func IsWhoareyou(dest types.NodeID, b []byte) bool {
	magic := MakeMagic(dest)
	return len(b) >= MagicLength && bytes.Equal(b[:MagicLength], magic[:])
}

// DecodeWhoareyou parses a challenge addressed to dest.
func DecodeWhoareyou(dest types.NodeID, b []byte) (*Whoareyou, error) {
	if !IsWhoareyou(dest, b) {
		return nil, fmt.Errorf("%w: magic mismatch", ErrMalformed)
	}
	var w Whoareyou
	if err := rlp.DecodeBytes(b[MagicLength:], &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (w *Whoareyou) validate() error {
	if len(w.Token) != AuthTagLength {
		return fmt.Errorf("%w: token length %d", ErrMalformed, len(w.Token))
	}
	if len(w.IDNonce) != IDNonceLength {
		return fmt.Errorf("%w: id-nonce length %d", ErrMalformed, len(w.IDNonce))
	}
	return nil
}
