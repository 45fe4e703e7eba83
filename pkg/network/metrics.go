package network

import "github.com/prometheus/client_golang/prometheus"

const (
	dirIn  = "in"
	dirOut = "out"

	kindMessage   = "message"
	kindChallenge = "whoareyou"
	kindRandom    = "random"
	kindMalformed = "malformed"
	kindError     = "error"
)

var packetsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "discv5",
		Subsystem: "transport",
		Name:      "packets_total",
		Help:      "Number of discovery packets by direction and kind.",
	}, []string{"direction", "kind"})

func init() {
	prometheus.MustRegister(packetsTotal)
}
