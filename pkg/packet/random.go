package packet

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Generator draws the fixed-length random values of the protocol from a
// single source. It is safe for concurrent use when its source is.
type Generator struct {
	source io.Reader
}

// NewGenerator returns a Generator reading from r. A nil r selects
// crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{source: r}
}

var defaultGenerator = NewGenerator(nil)

// read panics if the source fails; there is no safe fallback for
// missing entropy.
func (g *Generator) read(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(g.source, b); err != nil {
		panic(fmt.Errorf("packet: failed to read random bytes: %w", err))
	}
	return b
}

func (g *Generator) RequestID() []byte  { return g.read(RequestIDLength) }
func (g *Generator) AuthTag() []byte    { return g.read(AuthTagLength) }
func (g *Generator) RandomData() []byte { return g.read(RandomDataLength) }
func (g *Generator) IDNonce() []byte    { return g.read(IDNonceLength) }

// RequestID returns a fresh id correlating a request with its response.
func RequestID() []byte { return defaultGenerator.RequestID() }

// AuthTag returns a fresh nonce for packet encryption.
func AuthTag() []byte { return defaultGenerator.AuthTag() }

// RandomData returns padding for packets sent before a session exists.
func RandomData() []byte { return defaultGenerator.RandomData() }

// IDNonce returns a fresh handshake challenge.
func IDNonce() []byte { return defaultGenerator.IDNonce() }
