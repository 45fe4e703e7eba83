package protocol

import (
	"fmt"
	"net"

	"github.com/busybox42/discv5/pkg/packet"
)

// Ping checks liveness and advertises the sender's record sequence number.
type Ping struct {
	ReqID  []byte
	ENRSeq uint64 `rlp:"optional"`
}

func NewPing(enrSeq uint64) *Ping {
	return &Ping{ReqID: packet.RequestID(), ENRSeq: enrSeq}
}

func (p *Ping) RequestID() []byte   { return p.ReqID }
func (p *Ping) Type() (Type, error) { return PingType, nil }
func (p *Ping) Name() string        { return "PING" }

func (p *Ping) Encode() ([]byte, error) {
	return encodeFields(p.Name(), p.ReqID, p.ENRSeq)
}

func DecodePing(b []byte) (*Ping, error) {
	return decodeFields[Ping]("PING", b)
}

// Pong answers a Ping and reports the endpoint the Ping came from.
type Pong struct {
	ReqID  []byte
	ENRSeq uint64
	ToIP   net.IP
	ToPort uint16
}

func (p *Pong) RequestID() []byte   { return p.ReqID }
func (p *Pong) Type() (Type, error) { return PongType, nil }
func (p *Pong) Name() string        { return "PONG" }

func (p *Pong) Encode() ([]byte, error) {
	ip := p.ToIP
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	return encodeFields(p.Name(), p.ReqID, p.ENRSeq, []byte(ip), p.ToPort)
}

func DecodePong(b []byte) (*Pong, error) {
	p, err := decodeFields[Pong]("PONG", b)
	if err != nil {
		return nil, err
	}
	if len(p.ToIP) != net.IPv4len && len(p.ToIP) != net.IPv6len {
		return nil, fmt.Errorf("failed to decode PONG: %w: invalid ip length %d", packet.ErrMalformed, len(p.ToIP))
	}
	return p, nil
}
