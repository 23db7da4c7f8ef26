package cache

import (
	"encoding/hex"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfi/compiler"
)

var log = commonlog.GetLogger("bfi.cache")

// Compile returns the cached program for source, or compiles it and stores
// the result. Parse errors are returned as-is and never cached. A nil store
// compiles directly.
//
// Failing to write the cache is logged and otherwise ignored; the freshly
// compiled program is still returned.
func Compile(s *Store, source string, mode compiler.Mode) (compiler.Program, error) {
	if s == nil {
		return compiler.Compile(source, mode)
	}

	key := Key(source, mode)
	p, ok, err := s.Get(key)
	switch {
	case err != nil:
		log.Warningf("cache lookup %s: %v", shortKey(key), err)
	case ok:
		log.Debugf("cache hit %s (%s)", shortKey(key), mode)
		return p, nil
	}

	p, err = compiler.Compile(source, mode)
	if err != nil {
		return nil, err
	}
	if err := s.Put(key, mode, p); err != nil {
		log.Warningf("cache store %s: %v", shortKey(key), err)
	} else {
		log.Debugf("cache miss %s (%s), stored", shortKey(key), mode)
	}
	return p, nil
}

func shortKey(key [32]byte) string {
	return hex.EncodeToString(key[:6])
}
