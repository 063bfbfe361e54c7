package secret

import (
	"runtime"
	"sync/atomic"

	"github.com/stonewall-atlas/latchkey/pkg/cipher"
	"github.com/stonewall-atlas/latchkey/pkg/disposal"
	"github.com/stonewall-atlas/latchkey/pkg/memharden"
)

// Decryption states. The only legal progression is
// encrypted -> decrypting -> decrypted -> destroyed; exactly one goroutine
// performs each forward transition. The zero value is stateEncrypted so a
// freshly constructed container needs no explicit initialization.
const (
	stateEncrypted uint32 = iota
	stateDecrypting
	stateDecrypted
	stateDestroyed
)

// Sealed owns a fixed-length buffer holding either ciphertext or plaintext,
// the cipher that produced it, and the disposal strategy applied on
// destruction. The buffer's length never changes; it is mutated in place at
// most twice in its lifetime (decrypt on first access, dispose on Destroy).
//
// Concurrency: any number of goroutines may call Bytes concurrently. The
// state word is the lock — the claim winner holds it in the decrypting
// state for the duration of the transform and releases it by publishing the
// decrypted state; no separate mutex exists and the fast path is a single
// atomic load. Lock and Destroy are owner operations: the single owner
// calls them, and Destroy only after all views returned by Bytes have gone
// out of use.
type Sealed struct {
	buf      []byte
	cipher   cipher.Cipher
	disposal disposal.Strategy
	state    atomic.Uint32
	locked   bool
}

// Seal encrypts plaintext into a private buffer and returns a container in
// the encrypted state. The caller's plaintext slice is shredded so the
// cleartext does not linger in the caller's memory. Infallible: any cipher
// and any payload length are accepted, including the XOR identity key 0x00.
func Seal(plaintext []byte, c cipher.Cipher, d disposal.Strategy) *Sealed {
	buf := make([]byte, len(plaintext))
	copy(buf, plaintext)
	c.Transform(buf)

	// Shred the caller's plaintext so it does not linger in memory.
	memharden.Shred(plaintext)

	return &Sealed{buf: buf, cipher: c, disposal: d}
}

// FromCiphertext wraps ciphertext computed ahead of time — normally by
// latchkey-gen at build time, which is how the plaintext stays out of the
// compiled binary entirely. The container takes ownership of ct; the
// caller must not touch it again.
func FromCiphertext(ct []byte, c cipher.Cipher, d disposal.Strategy) *Sealed {
	return &Sealed{buf: ct, cipher: c, disposal: d}
}

// Bytes returns the decrypted contents, performing the one-time in-place
// decryption on first call. The returned slice aliases the container's
// buffer: it stays valid until Destroy and must not be modified. After
// Bytes returns — to any caller — the view reflects fully decrypted
// contents, never a partial transform. Panics if the container has been
// destroyed.
func (s *Sealed) Bytes() []byte {
	s.access()
	return s.buf
}

// access drives the one-time decryption state machine. Go's sync/atomic
// operations are sequentially consistent, which subsumes the
// acquire/release ordering this protocol needs: every byte written by the
// winner's transform is visible to any goroutine that observes the
// decrypted state.
func (s *Sealed) access() {
	// Fast path: already decrypted and published.
	if s.state.Load() == stateDecrypted {
		return
	}

	if s.state.CompareAndSwap(stateEncrypted, stateDecrypting) {
		// Claim won: exclusive right to mutate the buffer. The transform is
		// pure byte manipulation and cannot fail, so the decrypting state
		// is always released.
		s.cipher.Transform(s.buf)
		s.state.Store(stateDecrypted)
		return
	}

	// Claim lost: another goroutine is (or was) decrypting. Spin until it
	// publishes; the wait is bounded by the winner's transform duration.
	for {
		switch s.state.Load() {
		case stateDecrypted:
			return
		case stateDestroyed:
			panic("secret: access after Destroy")
		}
		runtime.Gosched()
	}
}

// Destroy applies the disposal strategy to whatever the buffer currently
// holds — plaintext if the secret was ever accessed, ciphertext otherwise —
// shreds any cipher key material, and unlocks locked pages. Idempotent.
// The owner must not call Destroy while other goroutines still hold views
// from Bytes; that discipline belongs to the owner, not this state machine.
func (s *Sealed) Destroy() {
	for {
		st := s.state.Load()
		if st == stateDestroyed {
			return
		}
		if st == stateDecrypting {
			// A reader is mid-transform; let it publish first.
			runtime.Gosched()
			continue
		}
		if s.state.CompareAndSwap(st, stateDestroyed) {
			break
		}
	}

	// Dispose before shredding the key: ReEncrypt still needs it.
	s.disposal.Dispose(s.buf)
	if ks, ok := s.cipher.(cipher.KeyShredder); ok {
		ks.ShredKey()
	}
	if s.locked {
		_ = memharden.UnlockBuffer(s.buf)
		s.locked = false
	}
}

// Lock pins the container's buffer in RAM and excludes it from core dumps
// (Linux; no-op elsewhere). Destroy unlocks. Owner operation, like Destroy.
func (s *Sealed) Lock() error {
	if err := memharden.LockBuffer(s.buf); err != nil {
		return err
	}
	s.locked = true
	return nil
}

// Len returns the fixed payload length.
func (s *Sealed) Len() int {
	return len(s.buf)
}

// Decrypted reports whether the one-time decryption has already happened.
func (s *Sealed) Decrypted() bool {
	return s.state.Load() == stateDecrypted
}
