// Package protocol defines the discovery messages and their wire form:
// one type byte followed by the RLP list of the message fields.
package protocol

import (
	"fmt"

	"github.com/busybox42/discv5/pkg/packet"
	"github.com/ethereum/go-ethereum/rlp"
)

type Type byte

const (
	PingType            Type = 0x01
	PongType            Type = 0x02
	FindNodeType        Type = 0x03
	NodesType           Type = 0x04
	RegTopicType        Type = 0x05
	TicketType          Type = 0x06
	RegConfirmationType Type = 0x07
	TopicQueryType      Type = 0x08
)

func (t Type) String() string {
	switch t {
	case PingType:
		return "PING"
	case PongType:
		return "PONG"
	case FindNodeType:
		return "FINDNODE"
	case NodesType:
		return "NODES"
	case RegTopicType:
		return "REGTOPIC"
	case TicketType:
		return "TICKET"
	case RegConfirmationType:
		return "REGCONFIRMATION"
	case TopicQueryType:
		return "TOPICQUERY"
	default:
		return fmt.Sprintf("UNKNOWN(%#x)", byte(t))
	}
}

// Message is implemented by every discovery message.
type Message interface {
	// RequestID correlates a request with its responses.
	RequestID() []byte
	// Type returns the wire type byte, or packet.ErrUnsupported for
	// messages that have none.
	Type() (Type, error)
	Name() string
	// Encode returns the RLP list of the message fields, without the
	// type byte.
	Encode() ([]byte, error)
}

// Marshal returns the type byte followed by the encoded message.
func Marshal(m Message) ([]byte, error) {
	t, err := m.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", m.Name(), err)
	}
	payload, err := m.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", m.Name(), err)
	}
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(t))
	return append(out, payload...), nil
}

// Parse strips the type byte from b and decodes the message it names.
func Parse(b []byte) (Message, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty message", packet.ErrMalformed)
	}
	content := b[1:]
	switch Type(b[0]) {
	case PingType:
		return DecodePing(content)
	case PongType:
		return DecodePong(content)
	case FindNodeType:
		return DecodeFindNode(content)
	case NodesType:
		return DecodeNodes(content)
	case RegTopicType:
		return DecodeRegTopic(content)
	case TicketType:
		return DecodeTicket(content)
	case RegConfirmationType:
		return DecodeRegConfirmation(content)
	case TopicQueryType:
		return DecodeTopicQuery(content)
	default:
		return nil, fmt.Errorf("%w: unknown message type %#x", packet.ErrMalformed, b[0])
	}
}

// encodeFields writes fields as one list in the given order. Optional
// trailing fields are always written, even when zero.
func encodeFields(name string, fields ...interface{}) ([]byte, error) {
	b, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return b, nil
}

// decodeFields decodes b into a fresh T. The whole input must be
// consumed by exactly one list.
func decodeFields[T any](name string, b []byte) (*T, error) {
	v := new(T)
	if err := rlp.DecodeBytes(b, v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w: %w", name, packet.ErrMalformed, err)
	}
	return v, nil
}
