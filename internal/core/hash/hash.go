// Package hash maps names to the 32-bit hashes used as instance identifiers,
// event ids and component names.
package hash

import (
	"fmt"

	"github.com/spaolacci/murmur3"
	"golang.org/x/text/unicode/norm"
)

// Hash is a 32-bit name hash.
type Hash uint32

// Unnamed is the identifier every instance starts with. Unlike real names it
// may be shared by any number of instances.
var Unnamed = String("__unnamed__")

// String hashes name after NFC normalization, so composed and decomposed
// spellings of the same name collide on purpose.
func String(name string) Hash {
	return Hash(murmur3.Sum32(norm.NFC.Bytes([]byte(name))))
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%08x", uint32(h))
}
