// pkg/network/network.go
package network

import (
	"context"
	"net"

	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
)

// Network sends framed discovery messages to remote nodes.
type Network interface {
	Send(ctx context.Context, to *types.Node, msg protocol.Message) error
	SendRandom(to *types.Node) error
	SendChallenge(to *net.UDPAddr, dest types.NodeID, token []byte, enrSeq uint64) error
}
