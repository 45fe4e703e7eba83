package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/busybox42/discv5/internal/store"
	"github.com/busybox42/discv5/pkg/crypto"
	"github.com/busybox42/discv5/pkg/discover"
	"github.com/busybox42/discv5/pkg/network"
	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

var errTimeout = errors.New("timed out waiting for response")

type DiscoveryCLI struct {
	log       logrus.FieldLogger
	keys      *crypto.KeyPair
	records   *store.Records
	transport *network.Transport
	responses chan protocol.Message
	timeout   time.Duration
}

func newDiscoveryCLI(keys *crypto.KeyPair, log logrus.FieldLogger) *DiscoveryCLI {
	return &DiscoveryCLI{
		log:       log,
		keys:      keys,
		records:   store.NewRecords(),
		responses: make(chan protocol.Message, 64),
		timeout:   5 * time.Second,
	}
}

func (cli *DiscoveryCLI) initializeNetwork(listen string) error {
	self := cli.keys.NodeID()
	handler := discover.NewMessageHandler(discover.Config{
		Self:       self,
		OnResponse: cli.onResponse,
		Log:        cli.log,
	}, cli.records)

	cli.transport = network.NewTransport(&network.Config{
		ListenAddr: listen,
		Self:       self,
		Handler:    handler,
		Log:        cli.log,
	})
	return cli.transport.Start()
}

func (cli *DiscoveryCLI) onResponse(from *types.Node, msg protocol.Message) {
	select {
	case cli.responses <- msg:
	default:
		cli.log.WithField("from", from.ID.TerminalString()).Warn("Dropping response, queue full")
	}
}

// await collects responses carrying reqID until done reports true.
func (cli *DiscoveryCLI) await(ctx context.Context, reqID []byte, done func(protocol.Message) bool) error {
	for {
		select {
		case msg := <-cli.responses:
			if string(msg.RequestID()) != string(reqID) {
				continue
			}
			if done(msg) {
				return nil
			}
		case <-ctx.Done():
			return errTimeout
		}
	}
}

func (cli *DiscoveryCLI) ping(to *types.Node) (*protocol.Pong, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cli.timeout)
	defer cancel()

	req := protocol.NewPing(0)
	if err := cli.transport.Send(ctx, to, req); err != nil {
		return nil, err
	}
	var pong *protocol.Pong
	err := cli.await(ctx, req.ReqID, func(msg protocol.Message) bool {
		p, ok := msg.(*protocol.Pong)
		if ok {
			pong = p
		}
		return ok
	})
	return pong, err
}

// findNode returns the records of every NODES message answering the
// request. The handler has already stored them.
func (cli *DiscoveryCLI) findNode(to *types.Node, distance uint64) ([][]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cli.timeout)
	defer cancel()

	req := protocol.NewFindNode(distance)
	if err := cli.transport.Send(ctx, to, req); err != nil {
		return nil, err
	}
	var (
		found    [][]byte
		received uint64
	)
	err := cli.await(ctx, req.ReqID, func(msg protocol.Message) bool {
		nodes, ok := msg.(*protocol.Nodes)
		if !ok {
			return false
		}
		for _, r := range nodes.Records {
			found = append(found, r)
		}
		received++
		return received >= nodes.Total
	})
	return found, err
}

func parseNode(s string) (*types.Node, error) {
	id, addr, ok := strings.Cut(s, "@")
	if !ok {
		return nil, fmt.Errorf("node must be <id>@<host:port>, got %q", s)
	}
	nodeID, err := types.ParseNodeID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid node id: %w", err)
	}
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("invalid node address: %w", err)
	}
	return types.NewNode(nodeID, udpAddr), nil
}

func (cli *DiscoveryCLI) startInteractiveCLI(in io.Reader, out io.Writer, target *types.Node) error {
	fmt.Fprintf(out, "Local Node ID: %s\n", cli.keys.NodeID())
	fmt.Fprintf(out, "Listening on: %s\n", cli.transport.LocalAddr())
	if target != nil {
		fmt.Fprintf(out, "Target node: %s @ %s\n", target.ID.TerminalString(), target.Address)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "discv5> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		command, args := parts[0], parts[1:]

		switch command {
		case "node":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: node <id>@<ip:port>")
				continue
			}
			node, err := parseNode(args[0])
			if err != nil {
				fmt.Fprintf(out, "Invalid node: %v\n", err)
				continue
			}
			target = node
			fmt.Fprintf(out, "Target node: %s @ %s\n", target.ID.TerminalString(), target.Address)

		case "ping":
			if target == nil {
				fmt.Fprintln(out, "No target node, use: node <id>@<ip:port>")
				continue
			}
			pong, err := cli.ping(target)
			if err != nil {
				fmt.Fprintf(out, "Ping failed: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "PONG enr-seq=%d observed=%s:%d\n", pong.ENRSeq, pong.ToIP, pong.ToPort)

		case "find":
			if target == nil {
				fmt.Fprintln(out, "No target node, use: node <id>@<ip:port>")
				continue
			}
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: find <distance>")
				continue
			}
			distance, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				fmt.Fprintf(out, "Invalid distance: %v\n", err)
				continue
			}
			found, err := cli.findNode(target, distance)
			if err != nil {
				fmt.Fprintf(out, "Find failed: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Found %d records:\n", len(found))
			for _, r := range found {
				key := store.KeyOf(r)
				fmt.Fprintf(out, "Record %s (%d bytes)\n", hexutil.Encode(key[:8]), len(r))
			}

		case "records":
			fmt.Fprintf(out, "Stored records: %d\n", cli.records.Len())
			cli.records.Range(func(key store.Key, record []byte) bool {
				fmt.Fprintf(out, "%s %s\n", hexutil.Encode(key[:]), hexutil.Encode(record))
				return true
			})

		case "peers":
			fmt.Fprintln(out, "Known peers:")
			cli.transport.RangePeers(func(id types.NodeID, node *types.Node) bool {
				fmt.Fprintf(out, "Peer %s @ %v\n", id.TerminalString(), node.Address)
				return true
			})

		case "mykey":
			fmt.Fprintf(out, "Local Node ID: %s\n", cli.keys.NodeID())

		case "exit":
			return nil

		case "help":
			fmt.Fprintln(out, "Available commands:")
			fmt.Fprintln(out, "  node <id>@<ip:port>  - Set the node to query")
			fmt.Fprintln(out, "  ping                 - Ping the target node")
			fmt.Fprintln(out, "  find <distance>      - Ask the target for records at a distance")
			fmt.Fprintln(out, "  records              - List records received so far")
			fmt.Fprintln(out, "  peers                - List nodes heard from")
			fmt.Fprintln(out, "  mykey                - Show the local node id")
			fmt.Fprintln(out, "  help                 - Show this help message")
			fmt.Fprintln(out, "  exit                 - Exit the client")

		default:
			fmt.Fprintf(out, "Unknown command: %s. Type 'help' for usage.\n", command)
		}
	}
}

func main() {
	listen := flag.String("listen", "0.0.0.0:0", "UDP address to listen on")
	nodeFlag := flag.String("node", "", "Node to query, as <id>@<ip:port>")
	keyFile := flag.String("key", "", "Path to a node key file (ephemeral key if empty)")
	timeout := flag.Duration("timeout", 5*time.Second, "How long to wait for a response")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var target *types.Node
	if *nodeFlag != "" {
		node, err := parseNode(*nodeFlag)
		if err != nil {
			log.Fatalf("Invalid -node: %v", err)
		}
		target = node
	}

	var (
		keys *crypto.KeyPair
		err  error
	)
	if *keyFile != "" {
		keys, err = crypto.LoadOrGenerateKeyPair(*keyFile)
	} else {
		keys, err = crypto.GenerateKeyPair()
	}
	if err != nil {
		log.Fatalf("Failed to initialize keys: %v", err)
	}

	cli := newDiscoveryCLI(keys, log)
	cli.timeout = *timeout
	if err := cli.initializeNetwork(*listen); err != nil {
		log.Fatalf("Failed to initialize network: %v", err)
	}
	defer cli.transport.Stop()

	if err := cli.startInteractiveCLI(os.Stdin, os.Stdout, target); err != nil {
		log.Fatalf("CLI error: %v", err)
	}
}
