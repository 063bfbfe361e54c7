package main

import (
	"os"
	"path/filepath"
	"testing"
)

// writeManifest drops YAML into a temp file and returns its path.
func writeManifest(t *testing.T, yml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latchkey.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

const validManifest = `version: 1
package: secrets
output: secrets_latchkey.go
secrets:
  - name: APIToken
    value: hunter2
    cipher: rc4
    key: "6d796b6579"
    view: string
  - name: RawBlob
    value: binary-ish
    cipher: xor
    key: "aa"
`

func TestLoadManifest(t *testing.T) {
	t.Run("valid manifest parses with defaults", func(t *testing.T) {
		m, raw, err := LoadManifest(writeManifest(t, validManifest))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(raw) == 0 {
			t.Fatal("raw manifest bytes are empty")
		}
		if err := m.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if m.Secrets[0].Disposal != "zeroize" {
			t.Fatalf("default disposal = %q, want zeroize", m.Secrets[0].Disposal)
		}
		if m.Secrets[1].View != "bytes" {
			t.Fatalf("default view = %q, want bytes", m.Secrets[1].View)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error for missing manifest")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, _, err := LoadManifest(writeManifest(t, "version: [unclosed")); err == nil {
			t.Fatal("expected error for malformed yaml")
		}
	})
}

func TestManifestValidate(t *testing.T) {
	base := func() *Manifest {
		m := &Manifest{
			Version: 1,
			Package: "secrets",
			Output:  "out.go",
			Secrets: []SecretConfig{{
				Name:   "Token",
				Value:  "v",
				Cipher: "xor",
				Key:    "aa",
			}},
		}
		m.applyDefaults()
		return m
	}

	t.Run("base manifest is valid", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*Manifest)
	}{
		{"wrong version", func(m *Manifest) { m.Version = 2 }},
		{"bad package", func(m *Manifest) { m.Package = "my-pkg" }},
		{"missing output", func(m *Manifest) { m.Output = "" }},
		{"no secrets", func(m *Manifest) { m.Secrets = nil }},
		{"unexported name", func(m *Manifest) { m.Secrets[0].Name = "token" }},
		{"invalid identifier", func(m *Manifest) { m.Secrets[0].Name = "My Token" }},
		{"value and value_file", func(m *Manifest) { m.Secrets[0].ValueFile = "x" }},
		{"neither value nor value_file", func(m *Manifest) { m.Secrets[0].Value = "" }},
		{"unknown cipher", func(m *Manifest) { m.Secrets[0].Cipher = "aes" }},
		{"non-hex key", func(m *Manifest) { m.Secrets[0].Key = "zz" }},
		{"xor key too long", func(m *Manifest) { m.Secrets[0].Key = "aabb" }},
		{"unknown disposal", func(m *Manifest) { m.Secrets[0].Disposal = "burn" }},
		{"unknown view", func(m *Manifest) { m.Secrets[0].View = "rune" }},
		{"bad alignment", func(m *Manifest) { m.Secrets[0].Align = 32 }},
		{"duplicate names", func(m *Manifest) {
			m.Secrets = append(m.Secrets, m.Secrets[0])
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := base()
			tc.mutate(m)
			if err := m.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	t.Run("rc4 key length bounds", func(t *testing.T) {
		m := base()
		m.Secrets[0].Cipher = "rc4"
		m.Secrets[0].Key = "" // derived later, fine
		if err := m.Validate(); err != nil {
			t.Fatalf("empty rc4 key should validate (derived): %v", err)
		}
	})
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	if err := m.Validate(); err != nil {
		t.Fatalf("DefaultManifest does not validate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "latchkey.yaml")
	if err := SaveManifest(m, path); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	m2, _, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := m2.Validate(); err != nil {
		t.Fatalf("reloaded manifest does not validate: %v", err)
	}
}
