// pkg/discover/handler_test.go
package discover

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/busybox42/discv5/internal/store"
	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

type staticTable map[uint64][][]byte

func (t staticTable) RecordsAt(distance uint64) [][]byte {
	return t[distance]
}

func testRecord(t *testing.T, seq uint64) []byte {
	t.Helper()
	b, err := rlp.EncodeToBytes([]interface{}{[]byte("sig"), seq, "id", "v4"})
	require.NoError(t, err)
	return b
}

func testPeer() *types.Node {
	var id types.NodeID
	id[0] = 0x42
	return types.NewNode(id, &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 30303})
}

func TestMessageHandler(t *testing.T) {
	localRecord := testRecord(t, 1)
	handler := NewMessageHandler(Config{
		Record: localRecord,
		ENRSeq: 1,
	}, store.NewRecords())

	tests := []struct {
		name     string
		msg      protocol.Message
		wantType protocol.Type
		wantErr  bool
	}{
		{name: "Ping request", msg: protocol.NewPing(3), wantType: protocol.PongType},
		{name: "Find node request", msg: protocol.NewFindNode(0), wantType: protocol.NodesType},
		{name: "Register topic request", msg: protocol.NewRegTopic(testRecord(t, 2), []byte("eth"), nil), wantType: protocol.TicketType},
		{name: "Topic query request", msg: protocol.NewTopicQuery([]byte("eth")), wantType: protocol.NodesType},
		{name: "Random message", msg: protocol.NewRandom(), wantErr: true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := handler.HandleMessage(ctx, testPeer(), tt.msg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, resp)

			typ, err := resp[0].Type()
			require.NoError(t, err)
			require.Equal(t, tt.wantType, typ)
			require.Equal(t, tt.msg.RequestID(), resp[0].RequestID())
		})
	}
}

func TestHandlerRequiresSender(t *testing.T) {
	handler := NewMessageHandler(Config{}, store.NewRecords())
	_, err := handler.HandleMessage(context.Background(), nil, protocol.NewPing(0))
	require.ErrorIs(t, err, ErrNoPeer)
}

func TestPingReportsObservedEndpoint(t *testing.T) {
	handler := NewMessageHandler(Config{ENRSeq: 9}, store.NewRecords())
	from := testPeer()

	resp, err := handler.HandleMessage(context.Background(), from, protocol.NewPing(1))
	require.NoError(t, err)
	require.Len(t, resp, 1)

	pong := resp[0].(*protocol.Pong)
	require.Equal(t, uint64(9), pong.ENRSeq)
	require.Equal(t, net.IP{127, 0, 0, 1}, pong.ToIP)
	require.Equal(t, uint16(30303), pong.ToPort)
}

func TestFindNodeSplitsLargeResults(t *testing.T) {
	records := make([][]byte, 7)
	for i := range records {
		records[i] = testRecord(t, uint64(i))
	}
	handler := NewMessageHandler(Config{Table: staticTable{256: records}}, store.NewRecords())

	resp, err := handler.HandleMessage(context.Background(), testPeer(), protocol.NewFindNode(256))
	require.NoError(t, err)
	require.Len(t, resp, 3)

	var got int
	for _, m := range resp {
		nodes := m.(*protocol.Nodes)
		require.Equal(t, uint64(3), nodes.Total)
		require.LessOrEqual(t, len(nodes.Records), maxRecordsPerNodes)
		got += len(nodes.Records)

		_, err := protocol.Marshal(nodes)
		require.NoError(t, err)
	}
	require.Equal(t, len(records), got)
}

func TestFindNodeWithoutTableAnswersEmpty(t *testing.T) {
	handler := NewMessageHandler(Config{}, store.NewRecords())

	resp, err := handler.HandleMessage(context.Background(), testPeer(), protocol.NewFindNode(100))
	require.NoError(t, err)
	require.Len(t, resp, 1)

	nodes := resp[0].(*protocol.Nodes)
	require.Equal(t, uint64(1), nodes.Total)
	require.Empty(t, nodes.Records)
}

func TestRegTopicStoresRecord(t *testing.T) {
	records := store.NewRecords()
	handler := NewMessageHandler(Config{}, records)
	record := testRecord(t, 5)

	resp, err := handler.HandleMessage(context.Background(), testPeer(), protocol.NewRegTopic(record, []byte("eth"), nil))
	require.NoError(t, err)

	key := store.KeyOf(record)
	got, ok := handler.Lookup(key[:])
	require.True(t, ok)
	require.Equal(t, record, got)

	ticket := resp[0].(*protocol.Ticket)
	require.Equal(t, key[:], ticket.Ticket)
}

func TestNodesResponseStoresRecords(t *testing.T) {
	records := store.NewRecords()
	handler := NewMessageHandler(Config{}, records)
	a, b := testRecord(t, 1), testRecord(t, 2)

	resp, err := handler.HandleMessage(context.Background(), testPeer(), &protocol.Nodes{
		ReqID:   []byte{1},
		Total:   1,
		Records: []rlp.RawValue{a, b},
	})
	require.NoError(t, err)
	require.Empty(t, resp)
	require.Equal(t, 2, records.Len())
}

func TestResponsesAreForwarded(t *testing.T) {
	var mu sync.Mutex
	var got []protocol.Message
	handler := NewMessageHandler(Config{
		OnResponse: func(_ *types.Node, msg protocol.Message) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, msg)
		},
	}, store.NewRecords())

	for _, msg := range []protocol.Message{
		&protocol.Pong{ReqID: []byte{1}, ToIP: net.IP{127, 0, 0, 1}},
		&protocol.Ticket{ReqID: []byte{2}},
		&protocol.RegConfirmation{ReqID: []byte{3}},
		&protocol.Nodes{ReqID: []byte{4}, Total: 1, Records: []rlp.RawValue{testRecord(t, 1)}},
	} {
		resp, err := handler.HandleMessage(context.Background(), testPeer(), msg)
		require.NoError(t, err)
		require.Empty(t, resp)
	}
	require.Len(t, got, 4)
	require.IsType(t, &protocol.Nodes{}, got[3])
}

func TestRegTopicRejectsInvalidRecord(t *testing.T) {
	records := store.NewRecords()
	handler := NewMessageHandler(Config{}, records)

	for _, record := range [][]byte{nil, {0x01, 0x02}, {0xc1, 0x01, 0x00}} {
		resp, err := handler.HandleMessage(context.Background(), testPeer(), protocol.NewRegTopic(record, []byte("eth"), nil))
		require.Error(t, err)
		require.Empty(t, resp)
	}
	require.Equal(t, 0, records.Len())
}
