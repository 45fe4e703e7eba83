package network

import (
	"context"
	"net"

	"github.com/busybox42/discv5/pkg/packet"
	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/sirupsen/logrus"
)

// Handler answers decoded messages.
type Handler interface {
	HandleMessage(ctx context.Context, from *types.Node, msg protocol.Message) ([]protocol.Message, error)
}

// ChallengeFunc receives WHOAREYOU packets addressed to the local node.
type ChallengeFunc func(from *net.UDPAddr, w *packet.Whoareyou)

// UnhandledFunc receives packets whose message could not be decoded,
// such as random packets sent before a session exists.
type UnhandledFunc func(from *types.Node, header packet.Header, body []byte)

type Config struct {
	// ListenAddr is a host:port for the UDP socket, ":0" picks a port.
	ListenAddr string
	Self       types.NodeID
	Handler    Handler
	// Workers bounds the packets processed at once.
	Workers     int
	OnChallenge ChallengeFunc
	Unhandled   UnhandledFunc
	Log         logrus.FieldLogger
}
