// Package disposal defines what happens to a secret's backing buffer when
// its container is destroyed: overwrite it with zeros, leave it as-is, or
// re-run the cipher so freed memory holds ciphertext again. Disposal is
// infallible; strategies never allocate.
package disposal
