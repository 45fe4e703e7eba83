// Package server wires the record store, message handler and UDP
// transport into a running discovery node.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/busybox42/discv5/internal/store"
	"github.com/busybox42/discv5/pkg/crypto"
	"github.com/busybox42/discv5/pkg/discover"
	"github.com/busybox42/discv5/pkg/network"
	"github.com/busybox42/discv5/pkg/packet"
	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Server struct {
	config    Config
	log       *logrus.Logger
	keys      *crypto.KeyPair
	self      types.NodeID
	records   *store.Records
	handler   *discover.MessageHandler
	transport *network.Transport
	metrics   *http.Server
}

func New(config Config, log *logrus.Logger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	keys, err := crypto.LoadOrGenerateKeyPair(config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keys: %w", err)
	}
	var record []byte
	if config.Record != "" {
		record = hexutil.MustDecode(config.Record)
	}

	srv := &Server{
		config:  config,
		log:     log,
		keys:    keys,
		self:    keys.NodeID(),
		records: store.NewRecords(),
	}
	if record != nil {
		srv.records.Set(record)
	}

	srv.handler = discover.NewMessageHandler(discover.Config{
		Self:       srv.self,
		Record:     record,
		ENRSeq:     config.ENRSeq,
		OnResponse: srv.onResponse,
		Log:        log,
	}, srv.records)

	srv.transport = network.NewTransport(&network.Config{
		ListenAddr:  config.ListenAddr,
		Self:        srv.self,
		Handler:     srv.handler,
		Workers:     config.Workers,
		OnChallenge: srv.onChallenge,
		Unhandled:   srv.onUnhandled,
		Log:         log,
	})
	return srv, nil
}

func (srv *Server) Self() types.NodeID            { return srv.self }
func (srv *Server) Records() *store.Records       { return srv.records }
func (srv *Server) Transport() *network.Transport { return srv.transport }

func (srv *Server) Start() error {
	srv.log.Infof("Starting discovery node %s on %s", srv.self, srv.config.ListenAddr)
	if err := srv.transport.Start(); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}
	if srv.config.MetricsAddr != "" {
		if err := srv.startMetrics(); err != nil {
			srv.transport.Stop()
			return err
		}
	}
	srv.bootstrap()
	return nil
}

func (srv *Server) startMetrics() error {
	ln, err := net.Listen("tcp", srv.config.MetricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Errorf("Metrics server failed: %v", err)
		}
	}()
	srv.log.Infof("Serving metrics on %s", ln.Addr())
	return nil
}

// bootstrap asks every configured node for its own record. The records
// arrive as NODES responses and land in the store.
func (srv *Server) bootstrap() {
	for _, b := range srv.config.Bootstrap {
		node, err := b.node()
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = srv.transport.Send(ctx, node, protocol.NewFindNode(0))
		cancel()
		if err != nil {
			srv.log.Warnf("Failed to contact bootstrap node %s: %v", node.Address, err)
		}
	}
}

func (srv *Server) onResponse(from *types.Node, msg protocol.Message) {
	srv.log.WithFields(logrus.Fields{
		"from": from.ID.TerminalString(),
		"msg":  msg.Name(),
		"req":  hexutil.Encode(msg.RequestID()),
	}).Debug("Received response")
}

func (srv *Server) onChallenge(from *net.UDPAddr, w *packet.Whoareyou) {
	srv.log.WithFields(logrus.Fields{
		"addr":   from,
		"enrseq": w.EnrSeq,
	}).Debug("Received WHOAREYOU")
}

func (srv *Server) onUnhandled(from *types.Node, header packet.Header, body []byte) {
	srv.log.WithFields(logrus.Fields{
		"from":    from.ID.TerminalString(),
		"authtag": hexutil.Encode(header.AuthTag),
		"size":    len(body),
	}).Debug("No session for packet")
}

func (srv *Server) Shutdown() error {
	if srv.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.metrics.Shutdown(ctx); err != nil {
			srv.log.Errorf("Error stopping metrics server: %v", err)
		}
	}
	if err := srv.transport.Stop(); err != nil {
		srv.log.Errorf("Error stopping transport: %v", err)
		return err
	}
	return nil
}
