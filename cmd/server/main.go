package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/busybox42/discv5/pkg/server"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func initLogger(level string) {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file")
	listen := flag.String("listen", "", "UDP address to listen on (overrides config)")
	metrics := flag.String("metrics", "", "Address to serve Prometheus metrics on (overrides config)")
	keyFile := flag.String("key", "", "Path to the node key file (overrides config)")
	flag.Parse()

	cfg := server.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = server.LoadConfig(*configPath)
		if err != nil {
			initLogger("info")
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *metrics != "" {
		cfg.MetricsAddr = *metrics
	}
	if *keyFile != "" {
		cfg.KeyFile = *keyFile
	}
	initLogger(cfg.LogLevel)

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer srv.Shutdown()

	log.Infof("Discovery node %s is running", srv.Self())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Infof("Received %s, shutting down", sig)
}
