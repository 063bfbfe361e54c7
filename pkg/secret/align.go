package secret

import (
	"fmt"
	"unsafe"

	"github.com/stonewall-atlas/latchkey/pkg/cipher"
	"github.com/stonewall-atlas/latchkey/pkg/disposal"
	"github.com/stonewall-atlas/latchkey/pkg/memharden"
)

// Alignment control exists for benchmarking cache-line effects on the
// decrypt transform; it has no bearing on correctness. Only 8 and 16 byte
// alignments are supported, matching what the benchmarks compare.

// SealAligned is Seal with the backing buffer placed at an address that is
// a multiple of align (8 or 16).
func SealAligned(plaintext []byte, c cipher.Cipher, d disposal.Strategy, align int) (*Sealed, error) {
	buf, err := alignedBuf(len(plaintext), align)
	if err != nil {
		return nil, err
	}
	copy(buf, plaintext)
	c.Transform(buf)
	memharden.Shred(plaintext)
	return &Sealed{buf: buf, cipher: c, disposal: d}, nil
}

// FromCiphertextAligned copies precomputed ciphertext into an aligned
// buffer. Unlike FromCiphertext this copies, because the caller's literal
// sits wherever the compiler placed it.
func FromCiphertextAligned(ct []byte, c cipher.Cipher, d disposal.Strategy, align int) (*Sealed, error) {
	buf, err := alignedBuf(len(ct), align)
	if err != nil {
		return nil, err
	}
	copy(buf, ct)
	return &Sealed{buf: buf, cipher: c, disposal: d}, nil
}

// StringFromCiphertextAligned is FromCiphertextAligned for text payloads;
// the UTF-8 obligation sits with the ciphertext producer, as in
// StringFromCiphertext.
func StringFromCiphertextAligned(ct []byte, c cipher.Cipher, d disposal.Strategy, align int) (*SealedString, error) {
	buf, err := alignedBuf(len(ct), align)
	if err != nil {
		return nil, err
	}
	copy(buf, ct)
	ss := &SealedString{}
	ss.buf = buf
	ss.cipher = c
	ss.disposal = d
	return ss, nil
}

// alignedBuf over-allocates by align bytes and slices at the first aligned
// offset, capping capacity so appends can never spill past the payload.
func alignedBuf(n, align int) ([]byte, error) {
	if align != 8 && align != 16 {
		return nil, fmt.Errorf("secret: unsupported alignment %d (want 8 or 16)", align)
	}
	raw := make([]byte, n+align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) % uintptr(align)); rem != 0 {
		off = align - rem
	}
	return raw[off : off+n : off+n], nil
}
