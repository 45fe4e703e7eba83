package types

import (
	"net"
	"strings"
	"testing"
	"time"
)

const testIDHex = "0xa5cfe10e0efc543cbe023560b2900e2243d798fafd0ea46267ddd20d283ce13c"

func TestParseNodeID(t *testing.T) {
	id, err := ParseNodeID(testIDHex)
	if err != nil {
		t.Fatalf("ParseNodeID failed: %v", err)
	}

	if id.String() != testIDHex {
		t.Errorf("Expected %s, got %s", testIDHex, id.String())
	}

	if !strings.HasPrefix(testIDHex, id.TerminalString()) {
		t.Errorf("TerminalString %s is not a prefix of %s", id.TerminalString(), testIDHex)
	}
}

func TestParseNodeIDErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing prefix", input: testIDHex[2:]},
		{name: "too short", input: "0xa5cf"},
		{name: "not hex", input: "0xzz"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseNodeID(tt.input); err == nil {
				t.Errorf("ParseNodeID(%q) expected error", tt.input)
			}
		})
	}
}

func TestBytesToNodeID(t *testing.T) {
	if _, err := BytesToNodeID(make([]byte, 31)); err == nil {
		t.Error("Expected error for 31-byte input")
	}

	b := make([]byte, NodeIDLength)
	b[0] = 0xff
	id, err := BytesToNodeID(b)
	if err != nil {
		t.Fatalf("BytesToNodeID failed: %v", err)
	}
	b[0] = 0x00
	if id[0] != 0xff {
		t.Error("NodeID shares memory with its input")
	}
}

func TestNewNode(t *testing.T) {
	id, _ := ParseNodeID(testIDHex)
	addr := &net.UDPAddr{
		IP:   net.ParseIP("127.0.0.1"),
		Port: 30303,
	}

	node := NewNode(id, addr)
	if node == nil {
		t.Fatal("NewNode returned a nil node")
	}

	if node.ID != id {
		t.Errorf("Expected ID %v, got %v", id, node.ID)
	}

	if node.Address.String() != addr.String() {
		t.Errorf("Expected address %v, got %v", addr, node.Address)
	}

	if time.Since(node.LastSeen) > time.Second {
		t.Errorf("LastSeen timestamp is not recent")
	}
}
