package cipher

// Xor XORs every byte of the buffer with a single-byte key. XOR is its own
// inverse, so the same Transform encrypts and decrypts. Key 0x00 is the
// identity transform and is accepted; it leaves the buffer equal to the
// plaintext at all times.
type Xor struct {
	Key byte
}

// NewXor returns an Xor cipher for the given key byte. Any key value is
// valid, including 0x00.
func NewXor(key byte) Xor {
	return Xor{Key: key}
}

// Transform XORs buf with the key, in place. No allocation.
func (x Xor) Transform(buf []byte) {
	for i := range buf {
		buf[i] ^= x.Key
	}
}
