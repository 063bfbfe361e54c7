package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key material resolution. A secret either carries its key as hex in the
// manifest or derives one from the master secret with HKDF-SHA256, salted
// by the secret's name so every secret gets an independent key.

const (
	hkdfInfo         = "latchkey key derivation v1"
	defaultRC4KeyLen = 16
)

// resolveKey returns the key bytes for one secret. master may be nil when
// every secret carries an explicit key.
func resolveKey(s *SecretConfig, master []byte) ([]byte, error) {
	if s.Key != "" {
		key, err := hex.DecodeString(s.Key)
		if err != nil {
			return nil, fmt.Errorf("latchkey-gen: secret %q: key is not valid hex: %w", s.Name, err)
		}
		return key, nil
	}

	if len(master) == 0 {
		return nil, fmt.Errorf("latchkey-gen: secret %q has no key and no master secret is set", s.Name)
	}

	n := 1
	if s.Cipher == "rc4" {
		n = defaultRC4KeyLen
	}
	return deriveKey(master, s.Name, n)
}

// deriveKey expands n bytes of key material from the master secret,
// salted by name.
func deriveKey(master []byte, name string, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, master, []byte(name), []byte(hkdfInfo))
	key := make([]byte, n)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("latchkey-gen: key derivation for %q failed: %w", name, err)
	}
	return key, nil
}
