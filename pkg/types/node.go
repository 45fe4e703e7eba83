// pkg/types/node.go
package types

import (
	"fmt"
	"net"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NodeIDLength is the size of a discovery node identifier in bytes.
const NodeIDLength = 32

// NodeID identifies a node on the discovery network.
type NodeID [NodeIDLength]byte

// ParseNodeID decodes a 0x-prefixed hex string into a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	var id NodeID
	b, err := hexutil.Decode(s)
	if err != nil {
		return id, fmt.Errorf("invalid node id: %w", err)
	}
	if len(b) != NodeIDLength {
		return id, fmt.Errorf("invalid node id: want %d bytes, got %d", NodeIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// BytesToNodeID copies b into a NodeID. b must be exactly NodeIDLength long.
func BytesToNodeID(b []byte) (NodeID, error) {
	var id NodeID
	if len(b) != NodeIDLength {
		return id, fmt.Errorf("invalid node id: want %d bytes, got %d", NodeIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (id NodeID) Bytes() []byte {
	return id[:]
}

func (id NodeID) String() string {
	return hexutil.Encode(id[:])
}

// TerminalString returns a shortened hex form for log output.
func (id NodeID) TerminalString() string {
	return hexutil.Encode(id[:8])
}

type Node struct {
	ID       NodeID
	Address  *net.UDPAddr
	LastSeen time.Time
}

func NewNode(id NodeID, addr *net.UDPAddr) *Node {
	return &Node{
		ID:       id,
		Address:  addr,
		LastSeen: time.Now(),
	}
}
