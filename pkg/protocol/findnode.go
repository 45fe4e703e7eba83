package protocol

import (
	"fmt"

	"github.com/busybox42/discv5/pkg/packet"
	"github.com/ethereum/go-ethereum/rlp"
)

// FindNode asks for the nodes at a logarithmic distance from the
// recipient. Distance 0 asks for the recipient's own record.
type FindNode struct {
	ReqID    []byte
	Distance uint64 `rlp:"optional"`
}

func NewFindNode(distance uint64) *FindNode {
	return &FindNode{ReqID: packet.RequestID(), Distance: distance}
}

func (f *FindNode) RequestID() []byte   { return f.ReqID }
func (f *FindNode) Type() (Type, error) { return FindNodeType, nil }
func (f *FindNode) Name() string        { return "FINDNODE" }

func (f *FindNode) Encode() ([]byte, error) {
	return encodeFields(f.Name(), f.ReqID, f.Distance)
}

func DecodeFindNode(b []byte) (*FindNode, error) {
	return decodeFields[FindNode]("FINDNODE", b)
}

// Nodes answers FindNode and TopicQuery. A response may be split over
// Total messages sharing one request id.
type Nodes struct {
	ReqID   []byte
	Total   uint64
	Records []rlp.RawValue
}

func (n *Nodes) RequestID() []byte   { return n.ReqID }
func (n *Nodes) Type() (Type, error) { return NodesType, nil }
func (n *Nodes) Name() string        { return "NODES" }

func (n *Nodes) Encode() ([]byte, error) {
	for i, r := range n.Records {
		if err := CheckRecord(r); err != nil {
			return nil, fmt.Errorf("failed to encode NODES record %d: %w", i, err)
		}
	}
	records := n.Records
	if records == nil {
		records = []rlp.RawValue{}
	}
	return encodeFields(n.Name(), n.ReqID, n.Total, records)
}

func DecodeNodes(b []byte) (*Nodes, error) {
	n, err := decodeFields[Nodes]("NODES", b)
	if err != nil {
		return nil, err
	}
	for i, r := range n.Records {
		if err := CheckRecord(r); err != nil {
			return nil, fmt.Errorf("failed to decode NODES record %d: %w: %w", i, packet.ErrMalformed, err)
		}
	}
	return n, nil
}

// CheckRecord verifies r is exactly one RLP list, the outer shape of a
// node record. Signature and content checks belong to the record layer.
func CheckRecord(r []byte) error {
	kind, _, rest, err := rlp.Split(r)
	if err != nil {
		return err
	}
	if kind != rlp.List || len(rest) != 0 {
		return fmt.Errorf("record is not a single list")
	}
	return nil
}
