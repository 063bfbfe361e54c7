package cipher

// Cipher is an in-place, self-inverse transform over a fixed-length byte
// buffer. Running Transform over plaintext yields ciphertext; running it
// again over that ciphertext restores the plaintext. Implementations must
// not retain any position or schedule state between calls, so a transform
// performed at build time and one performed much later at first access
// produce identical keystreams.
type Cipher interface {
	Transform(buf []byte)
}

// KeyShredder is implemented by ciphers that hold key material worth
// zeroizing. The secret container invokes it on destruction, after the
// disposal strategy has run (ReEncrypt still needs the key).
type KeyShredder interface {
	ShredKey()
}
