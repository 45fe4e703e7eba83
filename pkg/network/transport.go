// pkg/network/transport.go
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/busybox42/discv5/pkg/packet"
	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

var ErrNotStarted = errors.New("transport not started")

var _ Network = (*Transport)(nil)

// Transport reads discovery packets from a UDP socket, hands decoded
// messages to the handler and writes back its responses.
type Transport struct {
	config *Config
	log    logrus.FieldLogger
	peers  *xsync.MapOf[types.NodeID, *types.Node]
	sem    chan struct{}

	mu     sync.RWMutex
	conn   *net.UDPConn
	pconn  *ipv4.PacketConn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTransport(config *Config) *Transport {
	log := config.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	workers := config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Transport{
		config: config,
		log:    log.WithField("self", config.Self.TerminalString()),
		peers:  xsync.NewMapOf[types.NodeID, *types.Node](),
		sem:    make(chan struct{}, workers),
	}
}

func (t *Transport) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}

	addr, err := net.ResolveUDPAddr("udp4", t.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.conn = conn
	t.pconn = ipv4.NewPacketConn(conn)
	t.cancel = cancel

	t.wg.Add(1)
	go t.readLoop(ctx, t.pconn)

	t.log.WithField("addr", conn.LocalAddr()).Info("Discovery transport listening")
	return nil
}

func (t *Transport) Stop() error {
	t.mu.Lock()
	if t.conn == nil {
		t.mu.Unlock()
		return nil
	}
	t.cancel()
	err := t.conn.Close()
	t.conn = nil
	t.pconn = nil
	t.mu.Unlock()

	t.wg.Wait()
	return err
}

// LocalAddr returns the bound socket address, or nil before Start.
func (t *Transport) LocalAddr() *net.UDPAddr {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// RangePeers calls fn for every node a message was received from.
func (t *Transport) RangePeers(fn func(id types.NodeID, node *types.Node) bool) {
	t.peers.Range(fn)
}

func (t *Transport) readLoop(ctx context.Context, pconn *ipv4.PacketConn) {
	defer t.wg.Done()

	buf := make([]byte, maxPacketSize)
	for {
		n, _, src, err := pconn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.WithError(err).Debug("Read error")
			continue
		}
		from, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case t.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		t.wg.Add(1)
		go func() {
			defer func() {
				<-t.sem
				t.wg.Done()
			}()
			t.handlePacket(ctx, from, data)
		}()
	}
}

func (t *Transport) handlePacket(ctx context.Context, from *net.UDPAddr, data []byte) {
	log := t.log.WithField("addr", from)

	if packet.IsWhoareyou(t.config.Self, data) {
		w, err := packet.DecodeWhoareyou(t.config.Self, data)
		if err != nil {
			packetsTotal.WithLabelValues(dirIn, kindMalformed).Inc()
			log.WithError(err).Debug("Dropping invalid WHOAREYOU")
			return
		}
		packetsTotal.WithLabelValues(dirIn, kindChallenge).Inc()
		if t.config.OnChallenge != nil {
			t.config.OnChallenge(from, w)
		}
		return
	}

	header, body, err := packet.DecodeHeader(data)
	if err != nil {
		packetsTotal.WithLabelValues(dirIn, kindMalformed).Inc()
		log.WithError(err).Debug("Dropping packet")
		return
	}
	node := types.NewNode(packet.SourceFromTag(header.Tag, t.config.Self), from)

	msg, err := protocol.Parse(body)
	if err != nil {
		packetsTotal.WithLabelValues(dirIn, kindMalformed).Inc()
		log.WithError(err).WithField("from", node.ID.TerminalString()).Debug("Undecodable message")
		if t.config.Unhandled != nil {
			t.config.Unhandled(node, header, body)
		}
		return
	}
	packetsTotal.WithLabelValues(dirIn, kindMessage).Inc()
	t.peers.Store(node.ID, node)

	if t.config.Handler == nil {
		return
	}
	responses, err := t.config.Handler.HandleMessage(ctx, node, msg)
	if err != nil {
		log.WithError(err).WithField("msg", msg.Name()).Debug("Handler failed")
		return
	}
	for _, resp := range responses {
		if err := t.Send(ctx, node, resp); err != nil {
			log.WithError(err).WithField("msg", resp.Name()).Warn("Failed to send response")
		}
	}
}

// Send frames msg for to and writes it.
func (t *Transport) Send(ctx context.Context, to *types.Node, msg protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	if err := t.writeFramed(ctx, to, body); err != nil {
		return err
	}
	packetsTotal.WithLabelValues(dirOut, kindMessage).Inc()
	return nil
}

// SendRandom sends a packet with random content in place of a message,
// prompting to answer with WHOAREYOU.
func (t *Transport) SendRandom(to *types.Node) error {
	if err := t.writeFramed(context.Background(), to, packet.RandomData()); err != nil {
		return err
	}
	packetsTotal.WithLabelValues(dirOut, kindRandom).Inc()
	return nil
}

// SendChallenge answers a packet carrying token with WHOAREYOU.
func (t *Transport) SendChallenge(to *net.UDPAddr, dest types.NodeID, token []byte, enrSeq uint64) error {
	b, err := packet.EncodeWhoareyou(dest, packet.Whoareyou{
		Token:   token,
		IDNonce: packet.IDNonce(),
		EnrSeq:  enrSeq,
	})
	if err != nil {
		return err
	}
	if err := t.write(context.Background(), to, b); err != nil {
		return err
	}
	packetsTotal.WithLabelValues(dirOut, kindChallenge).Inc()
	return nil
}

func (t *Transport) writeFramed(ctx context.Context, to *types.Node, body []byte) error {
	header, err := packet.EncodeHeader(packet.Header{
		Tag:     packet.MakeTag(t.config.Self, to.ID),
		AuthTag: packet.AuthTag(),
	})
	if err != nil {
		return err
	}
	return t.write(ctx, to.Address, append(header, body...))
}

func (t *Transport) write(ctx context.Context, to *net.UDPAddr, b []byte) error {
	if len(b) > maxPacketSize {
		return fmt.Errorf("packet too large: %d bytes", len(b))
	}

	t.mu.RLock()
	pconn := t.pconn
	t.mu.RUnlock()
	if pconn == nil {
		return ErrNotStarted
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}
	if err := pconn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if _, err := pconn.WriteTo(b, nil, to); err != nil {
		packetsTotal.WithLabelValues(dirOut, kindError).Inc()
		return fmt.Errorf("failed to write packet: %w", err)
	}
	return nil
}
