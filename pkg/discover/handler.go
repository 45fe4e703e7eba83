// pkg/discover/handler.go
package discover

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/busybox42/discv5/internal/store"
	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"
)

// maxRecordsPerNodes bounds a single NODES message so it fits a packet.
const maxRecordsPerNodes = 3

var ErrNoPeer = errors.New("sender endpoint is required")

// RecordStore keeps node records by content hash.
type RecordStore interface {
	Set(record []byte) store.Key
	Find(key []byte) ([]byte, bool)
}

// Table returns the records at a distance from the local node. It is
// backed by the routing table, which lives outside this package.
type Table interface {
	RecordsAt(distance uint64) [][]byte
}

// Config describes the local node to the handler.
type Config struct {
	Self   types.NodeID
	Record []byte
	ENRSeq uint64
	Table  Table
	// OnResponse receives PONG, NODES, TICKET and REGCONFIRMATION
	// messages. NODES records are stored before the callback runs.
	OnResponse func(from *types.Node, msg protocol.Message)
	Log        logrus.FieldLogger
}

// MessageHandler answers decoded discovery requests.
type MessageHandler struct {
	cfg     Config
	records RecordStore
	log     logrus.FieldLogger
}

func NewMessageHandler(cfg Config, records RecordStore) *MessageHandler {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MessageHandler{
		cfg:     cfg,
		records: records,
		log:     log.WithField("self", cfg.Self.TerminalString()),
	}
}

// HandleMessage returns the messages to send back to from, if any.
func (h *MessageHandler) HandleMessage(ctx context.Context, from *types.Node, msg protocol.Message) ([]protocol.Message, error) {
	if from == nil || from.Address == nil {
		return nil, ErrNoPeer
	}

	switch m := msg.(type) {
	case *protocol.Ping:
		return h.handlePing(from, m), nil
	case *protocol.FindNode:
		return h.handleFindNode(m), nil
	case *protocol.RegTopic:
		return h.handleRegTopic(from, m)
	case *protocol.TopicQuery:
		// Topic advertisements are held by the topic table, which is
		// not part of this node. Answer with an empty result.
		return h.nodesResponse(m.ReqID, nil), nil
	case *protocol.Nodes:
		h.handleNodes(from, m)
		h.respond(from, m)
		return nil, nil
	case *protocol.Pong, *protocol.Ticket, *protocol.RegConfirmation:
		h.respond(from, m)
		return nil, nil
	default:
		return nil, errors.New("unknown message type")
	}
}

func (h *MessageHandler) respond(from *types.Node, msg protocol.Message) {
	if h.cfg.OnResponse != nil {
		h.cfg.OnResponse(from, msg)
	}
}

func (h *MessageHandler) handlePing(from *types.Node, msg *protocol.Ping) []protocol.Message {
	h.log.WithFields(logrus.Fields{
		"from":   from.ID.TerminalString(),
		"enrseq": msg.ENRSeq,
	}).Debug("Received ping")

	ip := from.Address.IP
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	return []protocol.Message{&protocol.Pong{
		ReqID:  msg.ReqID,
		ENRSeq: h.cfg.ENRSeq,
		ToIP:   append(net.IP(nil), ip...),
		ToPort: uint16(from.Address.Port),
	}}
}

func (h *MessageHandler) handleFindNode(msg *protocol.FindNode) []protocol.Message {
	var found [][]byte
	switch {
	case msg.Distance == 0:
		if h.cfg.Record != nil {
			found = [][]byte{h.cfg.Record}
		}
	case h.cfg.Table != nil:
		found = h.cfg.Table.RecordsAt(msg.Distance)
	}
	return h.nodesResponse(msg.ReqID, found)
}

func (h *MessageHandler) handleRegTopic(from *types.Node, msg *protocol.RegTopic) ([]protocol.Message, error) {
	if err := protocol.CheckRecord(msg.NodeRecord); err != nil {
		return nil, fmt.Errorf("invalid topic registration record: %w", err)
	}
	key := h.records.Set(msg.NodeRecord)
	h.log.WithFields(logrus.Fields{
		"from":  from.ID.TerminalString(),
		"topic": string(msg.Topic),
		"key":   types.NodeID(key).TerminalString(),
	}).Debug("Stored record from topic registration")

	ticket := msg.Ticket
	if len(ticket) == 0 {
		ticket = key[:]
	}
	return []protocol.Message{&protocol.Ticket{
		ReqID:  msg.ReqID,
		Ticket: ticket,
	}}, nil
}

func (h *MessageHandler) handleNodes(from *types.Node, msg *protocol.Nodes) {
	for _, r := range msg.Records {
		h.records.Set(r)
	}
	h.log.WithFields(logrus.Fields{
		"from":  from.ID.TerminalString(),
		"count": len(msg.Records),
	}).Debug("Stored records from nodes response")
}

// nodesResponse splits records over as many NODES messages as needed.
// An empty result is still answered with one message.
func (h *MessageHandler) nodesResponse(reqID []byte, records [][]byte) []protocol.Message {
	var batches [][]rlp.RawValue
	for len(records) > 0 {
		n := min(len(records), maxRecordsPerNodes)
		batch := make([]rlp.RawValue, n)
		for i := range batch {
			batch[i] = records[i]
		}
		batches = append(batches, batch)
		records = records[n:]
	}
	if len(batches) == 0 {
		batches = [][]rlp.RawValue{{}}
	}

	resp := make([]protocol.Message, len(batches))
	for i, batch := range batches {
		resp[i] = &protocol.Nodes{
			ReqID:   reqID,
			Total:   uint64(len(batches)),
			Records: batch,
		}
	}
	return resp
}

// Lookup returns the record stored under key.
func (h *MessageHandler) Lookup(key []byte) ([]byte, bool) {
	return h.records.Find(key)
}
