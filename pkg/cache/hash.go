package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Key kinds produced by [DefaultKeyer]. A key has the form
// "[scope]<kind>:<sha256>".
const (
	KindScene    = "scene"
	KindArtifact = "artifact"
)

// Hash returns the hex SHA-256 digest of data. Frames and layout
// overrides are fingerprinted with it before they enter a key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey digests the JSON encoding of parts under kind.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// KeyKind returns the kind of a key built by a [Keyer], ignoring any
// scope prefix. Keys of unknown shape report "".
func KeyKind(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return ""
	}
	head := key[:i]
	if j := strings.LastIndexByte(head, ':'); j >= 0 {
		head = head[j+1:]
	}
	switch head {
	case KindScene, KindArtifact:
		return head
	}
	return ""
}
