package disposal

import (
	"github.com/stonewall-atlas/latchkey/pkg/cipher"
	"github.com/stonewall-atlas/latchkey/pkg/memharden"
)

// Strategy is the terminal action applied to a secret's backing buffer when
// the owning container is destroyed. The buffer may hold plaintext (the
// secret was accessed) or still-encrypted bytes (it never was); strategies
// must handle both.
type Strategy interface {
	Dispose(buf []byte)
}

// Zeroize overwrites every byte with zero. Use when preventing residual
// plaintext recovery from freed memory is the priority.
type Zeroize struct{}

func (Zeroize) Dispose(buf []byte) {
	memharden.Shred(buf)
}

// NoOp leaves the buffer untouched. Use when disposal cost matters and
// residual plaintext in freed memory is an accepted risk.
type NoOp struct{}

func (NoOp) Dispose([]byte) {}

// ReEncrypt re-runs the cipher's transform so whatever is left in memory is
// ciphertext again, even if the container was never read (in that case the
// buffer ends up double-encrypted rather than zeroed — still nothing
// recognizable). For RC4 this re-derives the full key schedule from
// scratch, same as decryption does.
type ReEncrypt struct {
	Cipher cipher.Cipher
}

func (r ReEncrypt) Dispose(buf []byte) {
	r.Cipher.Transform(buf)
}
