// Package cipher implements the in-place, self-inverse byte transforms that
// keep embedded secrets encrypted at rest: a single-byte XOR and the RC4
// stream cipher. Both run the identical operation for encryption and
// decryption, so the build-time transform and the first-access transform
// are the same code path. Neither is cryptographically secure; they exist
// to keep plaintext out of a binary's static data, not to resist an
// attacker with the key.
package cipher
