package secret

import (
	"unicode/utf8"
	"unsafe"

	"github.com/stonewall-atlas/latchkey/pkg/cipher"
	"github.com/stonewall-atlas/latchkey/pkg/disposal"
)

// SealedString is a Sealed whose payload is known-valid UTF-8 text. Only
// the string constructors produce one, so a bytes payload can never be
// projected as text — the payload-kind tag is the Go type itself. Both
// supported ciphers are byte-wise, length-preserving bijections, so the
// transform round-trips the exact original bytes and the validity checked
// at construction still holds after decryption.
type SealedString struct {
	Sealed
}

// SealString seals a text secret. Panics if v is not valid UTF-8: asking
// for a text view over non-text bytes is a programming error, caught at
// construction rather than deferred to a garbled read.
func SealString(v string, c cipher.Cipher, d disposal.Strategy) *SealedString {
	if !utf8.ValidString(v) {
		panic("secret: SealString requires valid UTF-8")
	}
	buf := []byte(v) // private copy; the original string is immutable
	c.Transform(buf)
	ss := &SealedString{}
	ss.buf = buf
	ss.cipher = c
	ss.disposal = d
	return ss
}

// StringFromCiphertext wraps precomputed ciphertext whose plaintext was
// valid UTF-8. The validity obligation is discharged where the ciphertext
// is produced — latchkey-gen refuses to emit a string view for non-UTF-8
// input — since it cannot be re-checked here without the plaintext.
func StringFromCiphertext(ct []byte, c cipher.Cipher, d disposal.Strategy) *SealedString {
	ss := &SealedString{}
	ss.buf = ct
	ss.cipher = c
	ss.disposal = d
	return ss
}

// String returns the decrypted text without copying: the string header
// points straight at the container's buffer. It is valid until Destroy.
// Decryption-on-first-access semantics are identical to Bytes.
func (ss *SealedString) String() string {
	b := ss.Bytes()
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
