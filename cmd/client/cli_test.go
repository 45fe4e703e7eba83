package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/busybox42/discv5/internal/store"
	"github.com/busybox42/discv5/pkg/crypto"
	"github.com/busybox42/discv5/pkg/discover"
	"github.com/busybox42/discv5/pkg/network"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return log
}

func newTestCLI(t *testing.T) *DiscoveryCLI {
	t.Helper()
	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	cli := newDiscoveryCLI(keys, testLogger())
	cli.timeout = 2 * time.Second
	require.NoError(t, cli.initializeNetwork("127.0.0.1:0"))
	t.Cleanup(func() { cli.transport.Stop() })
	return cli
}

// startRemote runs a discovery node that serves record for FINDNODE(0).
func startRemote(t *testing.T, record []byte) *types.Node {
	t.Helper()
	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	self := keys.NodeID()
	tr := network.NewTransport(&network.Config{
		ListenAddr: "127.0.0.1:0",
		Self:       self,
		Handler: discover.NewMessageHandler(discover.Config{
			Self:   self,
			Record: record,
			ENRSeq: 7,
			Log:    testLogger(),
		}, store.NewRecords()),
		Log: testLogger(),
	})
	require.NoError(t, tr.Start())
	t.Cleanup(func() { tr.Stop() })
	return types.NewNode(self, tr.LocalAddr())
}

func testRecord(t *testing.T) []byte {
	t.Helper()
	b, err := rlp.EncodeToBytes([]interface{}{[]byte("sig"), uint64(7), "id", "v4"})
	require.NoError(t, err)
	return b
}

func TestParseNode(t *testing.T) {
	id := "0xa5cfe10e0efc543cbe023560b2900e2243d798fafd0ea46267ddd20d283ce13c"

	node, err := parseNode(id + "@127.0.0.1:30303")
	require.NoError(t, err)
	require.Equal(t, id, node.ID.String())
	require.Equal(t, 30303, node.Address.Port)

	for _, bad := range []string{
		id,
		"0x01@127.0.0.1:30303",
		id + "@nope",
	} {
		_, err := parseNode(bad)
		require.Error(t, err, bad)
	}
}

func TestPingAndFindNode(t *testing.T) {
	record := testRecord(t)
	remote := startRemote(t, record)
	cli := newTestCLI(t)

	pong, err := cli.ping(remote)
	require.NoError(t, err)
	require.Equal(t, uint64(7), pong.ENRSeq)
	require.Equal(t, uint16(cli.transport.LocalAddr().Port), pong.ToPort)

	found, err := cli.findNode(remote, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, record, found[0])

	key := store.KeyOf(record)
	_, ok := cli.records.Find(key[:])
	require.True(t, ok)
}

func TestFindNodeTimesOutWithoutAnswer(t *testing.T) {
	cli := newTestCLI(t)
	cli.timeout = 200 * time.Millisecond

	// Nothing listens on this port once the transport is stopped.
	silent := newTestCLI(t)
	to := types.NewNode(silent.keys.NodeID(), silent.transport.LocalAddr())
	silent.transport.Stop()

	_, err := cli.findNode(to, 0)
	require.ErrorIs(t, err, errTimeout)
}

func TestInteractiveCommands(t *testing.T) {
	record := testRecord(t)
	remote := startRemote(t, record)
	cli := newTestCLI(t)

	in := strings.NewReader(strings.Join([]string{
		"ping",
		"find 0",
		"records",
		"peers",
		"find x",
		"bogus",
		"exit",
	}, "\n") + "\n")
	var out bytes.Buffer
	require.NoError(t, cli.startInteractiveCLI(in, &out, remote))

	got := out.String()
	require.Contains(t, got, "PONG enr-seq=7")
	require.Contains(t, got, "Found 1 records:")
	require.Contains(t, got, "Stored records: 1")
	require.Contains(t, got, hexutil.Encode(record))
	require.Contains(t, got, "Peer "+remote.ID.TerminalString())
	require.Contains(t, got, "Invalid distance")
	require.Contains(t, got, "Unknown command: bogus")
}

func TestInteractiveRequiresTarget(t *testing.T) {
	cli := newTestCLI(t)

	var out bytes.Buffer
	require.NoError(t, cli.startInteractiveCLI(strings.NewReader("ping\nnode nope\n"), &out, nil))
	require.Contains(t, out.String(), "No target node")
	require.Contains(t, out.String(), "Invalid node")
}
