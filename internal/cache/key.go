package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// keyLen is the number of hex characters kept from the digest. 64 bits of
// key space keeps collisions negligible at debugging-session scale while
// keeping keys readable in logs and CLI output.
const keyLen = 16

// Key is a content hash over an instruction and its canonicalized context.
type Key string

// DeriveKey hashes the operation kind, the instruction, the canonicalized
// window content, and any extra discriminators (extraction shape
// fingerprints) into a cache key. Same inputs always derive the same key.
func DeriveKey(kind, instruction, canonical string, extra ...string) Key {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(instruction)))
	h.Write([]byte{0})
	h.Write([]byte(canonical))
	for _, e := range extra {
		h.Write([]byte{0})
		h.Write([]byte(e))
	}
	return Key(hex.EncodeToString(h.Sum(nil))[:keyLen])
}
