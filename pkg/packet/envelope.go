// Package packet implements the values every discovery packet is built
// from: the sender tag, the WHOAREYOU magic, and the random nonces.
package packet

import (
	"github.com/busybox42/discv5/pkg/crypto"
	"github.com/busybox42/discv5/pkg/types"
)

const (
	TagLength        = 32
	MagicLength      = 32
	AuthTagLength    = 12
	RandomDataLength = 44
	IDNonceLength    = 32
	RequestIDLength  = 8
)

const whoareyouSuffix = "WHOAREYOU"

type (
	Tag   [TagLength]byte
	Magic [MagicLength]byte
)

// MakeTag returns hash(dest) XOR src.
func MakeTag(src, dest types.NodeID) Tag {
	h := crypto.Hash(dest[:])
	var tag Tag
	copy(tag[:], crypto.XOR(h[:], src[:]))
	return tag
}

// SourceFromTag recovers the sender id from a tag addressed to dest.
func SourceFromTag(tag Tag, dest types.NodeID) types.NodeID {
	h := crypto.Hash(dest[:])
	var src types.NodeID
	copy(src[:], crypto.XOR(tag[:], h[:]))
	return src
}

// MakeMagic returns hash(dest || "WHOAREYOU").
func MakeMagic(dest types.NodeID) Magic {
	return Magic(crypto.Hash(dest[:], []byte(whoareyouSuffix)))
}
