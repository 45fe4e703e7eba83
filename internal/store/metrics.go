package store

import "github.com/prometheus/client_golang/prometheus"

const (
	opSet  = "set"
	opFind = "find"

	resSuccess  = "success"
	resNotFound = "not_found"
)

var storeOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "discv5",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Number of node record store operations.",
	}, []string{"operation", "result"})

func init() {
	prometheus.MustRegister(storeOperations)
}
