// Package secret provides a container that holds a value encrypted at rest
// and decrypts it in place, exactly once, on first access. Construction
// runs the cipher's forward transform (or accepts ciphertext precomputed by
// latchkey-gen, so plaintext never appears in the binary); first access
// claims a one-time state transition with an atomic compare-and-swap and
// performs the inverse transform under exclusive access while concurrent
// readers spin until the decrypted buffer is published; destruction applies
// a disposal strategy to whatever the buffer holds at that moment.
package secret
