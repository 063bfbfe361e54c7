package cipher

import (
	"fmt"
	"runtime"
)

// RC4 key length bounds. The KSA mixes the key cyclically into a 256-entry
// table, so keys longer than 256 bytes add nothing.
const (
	MinKeyLen = 1
	MaxKeyLen = 256
)

// RC4 implements the RC4 stream cipher as an in-place XOR with the
// keystream. Encryption and decryption are the same operation. The key
// schedule and generator indices are rebuilt from the stored key on every
// Transform call — no keystream position survives between calls, so a
// transform run at build time and one run at first access are byte-for-byte
// identical.
//
// RC4 is cryptographically broken. It is used here to obfuscate embedded
// secrets, not to provide confidentiality.
type RC4 struct {
	key []byte
}

// NewRC4 copies key (1 to 256 bytes) into the cipher. The copy is never
// modified until ShredKey.
func NewRC4(key []byte) (*RC4, error) {
	if len(key) < MinKeyLen || len(key) > MaxKeyLen {
		return nil, fmt.Errorf("cipher: rc4 key must be %d..%d bytes, got %d", MinKeyLen, MaxKeyLen, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &RC4{key: k}, nil
}

// Transform XORs buf with the RC4 keystream for the stored key, in place.
// The 256-byte S-box lives on the stack; KSA and PRGA follow the standard
// algorithm definition exactly (i and j start at 0 and wrap at 8 bits).
func (r *RC4) Transform(buf []byte) {
	var s [256]byte
	for i := range s {
		s[i] = byte(i)
	}

	// KSA: mix the key cyclically into the permutation table.
	var j byte
	for i := 0; i < 256; i++ {
		j += s[i] + r.key[i%len(r.key)]
		s[i], s[j] = s[j], s[i]
	}

	// PRGA: walk the table and XOR the keystream into the buffer.
	var i byte
	j = 0
	for idx := range buf {
		i++
		j += s[i]
		s[i], s[j] = s[j], s[i]
		buf[idx] ^= s[s[i]+s[j]]
	}
}

// ShredKey zeroizes the stored key copy. The cipher produces garbage
// afterwards; only the owning container calls this, on destruction, after
// disposal has run.
//
//go:noinline
func (r *RC4) ShredKey() {
	for i := range r.key {
		r.key[i] = 0
	}
	runtime.KeepAlive(r.key)
}
