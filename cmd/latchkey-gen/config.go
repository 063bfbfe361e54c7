package main

import (
	"encoding/hex"
	"fmt"
	"go/token"
	"os"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/stonewall-atlas/latchkey/pkg/cipher"
)

// Manifest is the YAML description of the secrets to embed. It is the only
// configuration latchkey-gen reads; everything else comes from flags.
type Manifest struct {
	Version int            `yaml:"version"`
	Package string         `yaml:"package"`
	Output  string         `yaml:"output"`
	Secrets []SecretConfig `yaml:"secrets"`
}

// SecretConfig describes one secret to encrypt and emit.
type SecretConfig struct {
	// Name becomes the generated Go variable; it must be an exported
	// identifier.
	Name string `yaml:"name"`

	// Exactly one of Value and ValueFile supplies the plaintext.
	Value     string `yaml:"value,omitempty"`
	ValueFile string `yaml:"value_file,omitempty"`

	// Cipher is "xor" or "rc4". Key is hex-encoded: one byte for xor,
	// 1..256 bytes for rc4. An empty key is derived from the master
	// secret at generation time.
	Cipher string `yaml:"cipher"`
	Key    string `yaml:"key,omitempty"`

	// Disposal is "zeroize" (default), "noop", or "reencrypt".
	Disposal string `yaml:"disposal,omitempty"`

	// View is "bytes" (default) or "string". A string view requires the
	// plaintext to be valid UTF-8, checked at generation time.
	View string `yaml:"view,omitempty"`

	// Align forces the buffer to an 8- or 16-byte boundary; 0 means no
	// alignment control.
	Align int `yaml:"align,omitempty"`
}

// LoadManifest reads and parses a manifest file, returning the parsed form
// and the raw bytes (the raw bytes feed the regeneration hash).
func LoadManifest(path string) (*Manifest, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("latchkey-gen: failed to read manifest: %w", err)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, nil, fmt.Errorf("latchkey-gen: failed to parse manifest: %w", err)
	}
	m.applyDefaults()
	return m, raw, nil
}

func (m *Manifest) applyDefaults() {
	for i := range m.Secrets {
		s := &m.Secrets[i]
		if s.Disposal == "" {
			s.Disposal = "zeroize"
		}
		if s.View == "" {
			s.View = "bytes"
		}
	}
}

// Validate checks everything that can be checked without the master secret
// or the value files' contents.
func (m *Manifest) Validate() error {
	if m.Version != 1 {
		return fmt.Errorf("latchkey-gen: unsupported manifest version %d (want 1)", m.Version)
	}
	if !token.IsIdentifier(m.Package) {
		return fmt.Errorf("latchkey-gen: package %q is not a valid Go identifier", m.Package)
	}
	if m.Output == "" {
		return fmt.Errorf("latchkey-gen: output path is required")
	}
	if len(m.Secrets) == 0 {
		return fmt.Errorf("latchkey-gen: manifest declares no secrets")
	}

	seen := make(map[string]bool, len(m.Secrets))
	for i := range m.Secrets {
		s := &m.Secrets[i]
		if err := s.validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("latchkey-gen: duplicate secret name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

func (s *SecretConfig) validate() error {
	if !token.IsIdentifier(s.Name) {
		return fmt.Errorf("latchkey-gen: secret name %q is not a valid Go identifier", s.Name)
	}
	r, _ := utf8.DecodeRuneInString(s.Name)
	if !unicode.IsUpper(r) {
		return fmt.Errorf("latchkey-gen: secret name %q must be exported (start with an upper-case letter)", s.Name)
	}

	hasValue := s.Value != ""
	hasFile := s.ValueFile != ""
	if hasValue == hasFile {
		return fmt.Errorf("latchkey-gen: secret %q needs exactly one of value and value_file", s.Name)
	}

	switch s.Cipher {
	case "xor", "rc4":
	default:
		return fmt.Errorf("latchkey-gen: secret %q: unknown cipher %q (want xor or rc4)", s.Name, s.Cipher)
	}

	if s.Key != "" {
		key, err := hex.DecodeString(s.Key)
		if err != nil {
			return fmt.Errorf("latchkey-gen: secret %q: key is not valid hex: %w", s.Name, err)
		}
		switch s.Cipher {
		case "xor":
			if len(key) != 1 {
				return fmt.Errorf("latchkey-gen: secret %q: xor key must be exactly 1 byte, got %d", s.Name, len(key))
			}
		case "rc4":
			if len(key) < cipher.MinKeyLen || len(key) > cipher.MaxKeyLen {
				return fmt.Errorf("latchkey-gen: secret %q: rc4 key must be %d..%d bytes, got %d",
					s.Name, cipher.MinKeyLen, cipher.MaxKeyLen, len(key))
			}
		}
	}

	switch s.Disposal {
	case "zeroize", "noop", "reencrypt":
	default:
		return fmt.Errorf("latchkey-gen: secret %q: unknown disposal %q (want zeroize, noop, or reencrypt)", s.Name, s.Disposal)
	}

	switch s.View {
	case "bytes", "string":
	default:
		return fmt.Errorf("latchkey-gen: secret %q: unknown view %q (want bytes or string)", s.Name, s.View)
	}

	switch s.Align {
	case 0, 8, 16:
	default:
		return fmt.Errorf("latchkey-gen: secret %q: unsupported alignment %d (want 0, 8, or 16)", s.Name, s.Align)
	}

	return nil
}

// DefaultManifest returns the starter manifest written by `latchkey-gen init`.
func DefaultManifest() *Manifest {
	return &Manifest{
		Version: 1,
		Package: "secrets",
		Output:  "secrets_latchkey.go",
		Secrets: []SecretConfig{
			{
				Name:     "ExampleToken",
				Value:    "change-me",
				Cipher:   "rc4",
				Disposal: "zeroize",
				View:     "string",
			},
		},
	}
}

// SaveManifest writes a manifest as YAML.
func SaveManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("latchkey-gen: failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("latchkey-gen: failed to write manifest: %w", err)
	}
	return nil
}
