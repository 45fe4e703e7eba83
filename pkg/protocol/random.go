package protocol

import "github.com/busybox42/discv5/pkg/packet"

// Random is the filler sent in place of a message before a session key
// exists. It has no type byte and cannot be marshaled.
type Random struct {
	Data []byte
}

func NewRandom() *Random {
	return &Random{Data: packet.RandomData()}
}

func (r *Random) RequestID() []byte   { return nil }
func (r *Random) Type() (Type, error) { return 0, packet.ErrUnsupported }
func (r *Random) Name() string        { return "RANDOM" }

// Encode returns the random content as is.
func (r *Random) Encode() ([]byte, error) {
	return append([]byte(nil), r.Data...), nil
}

func DecodeRandom(b []byte) *Random {
	return &Random{Data: append([]byte(nil), b...)}
}
