package cache

import (
	"github.com/zeebo/blake3"

	"github.com/chazu/bfi/compiler"
)

// keyContext separates cache keys from any other BLAKE3 use.
const keyContext = "bfi 2026 compiled program cache"

// Key returns the content address for source compiled in mode. The raw
// text is hashed, so sources differing only in comments get distinct keys.
func Key(source string, mode compiler.Mode) [32]byte {
	h := blake3.NewDeriveKey(keyContext)
	h.Write([]byte{FormatVersion, byte(mode)})
	h.WriteString(source)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
