// pkg/crypto/keys.go
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/busybox42/discv5/pkg/types"
)

// KeyPair represents the long-lived identity key of a discovery node
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateKeyPair creates a new Ed25519 key pair
func GenerateKeyPair() (*KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	}, nil
}

// LoadOrGenerateKeyPair reads a private key seed from path, creating and
// persisting a fresh one when the file does not exist.
func LoadOrGenerateKeyPair(path string) (*KeyPair, error) {
	seed, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		kp, err := GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("failed to generate keys: %w", err)
		}
		if err := os.WriteFile(path, kp.PrivateKey.Seed(), 0600); err != nil {
			return nil, fmt.Errorf("failed to write key file: %w", err)
		}
		return kp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid key file %s: want %d bytes, got %d", path, ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		PublicKey:  priv.Public().(ed25519.PublicKey),
		PrivateKey: priv,
	}, nil
}

// NodeID derives the discovery identifier from the public key
func (kp *KeyPair) NodeID() types.NodeID {
	return types.NodeID(Hash(kp.PublicKey))
}
