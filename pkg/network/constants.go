package network

import "time"

const (
	// maxPacketSize is the largest datagram the protocol sends.
	maxPacketSize  = 1280
	writeTimeout   = 5 * time.Second
	defaultWorkers = 32
)
