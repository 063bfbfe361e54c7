package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"go/format"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/stonewall-atlas/latchkey/pkg/cipher"
	"github.com/stonewall-atlas/latchkey/pkg/memharden"
)

// hashMarker prefixes the manifest hash embedded in generated files. The
// hash makes regeneration cheap to skip: if the manifest has not changed,
// neither has the output.
const hashMarker = "// latchkey:manifest "

// Generator turns a manifest into a Go source file of sealed secrets.
type Generator struct {
	manifest *Manifest
	raw      []byte // manifest bytes, hashed for the regeneration check
	master   []byte // master secret for derived keys; may be nil
	verbose  bool
}

// NewGenerator wires a parsed manifest to a generator.
func NewGenerator(m *Manifest, raw, master []byte, verbose bool) *Generator {
	return &Generator{manifest: m, raw: raw, master: master, verbose: verbose}
}

// emittedSecret is the per-secret template input.
type emittedSecret struct {
	Name         string
	Comment      string
	ReturnType   string
	CipherExpr   string
	DisposalExpr string
	Ciphertext   string
	Ctor         string
	Aligned      bool
	Align        int
}

// templateInput is the top-level template input.
type templateInput struct {
	Hash     string
	Package  string
	NeedsRC4 bool
	Secrets  []emittedSecret
}

var fileTemplate = template.Must(template.New("latchkey").Parse(`// Code generated by latchkey-gen. DO NOT EDIT.
{{.Marker}}{{.Hash}}

package {{.Package}}

import (
	"github.com/stonewall-atlas/latchkey/pkg/cipher"
	"github.com/stonewall-atlas/latchkey/pkg/disposal"
	"github.com/stonewall-atlas/latchkey/pkg/secret"
)
{{if .NeedsRC4}}
func mustRC4(key []byte) *cipher.RC4 {
	c, err := cipher.NewRC4(key)
	if err != nil {
		panic(err)
	}
	return c
}
{{end}}
{{- range .Secrets}}
// {{.Name}} is sealed with {{.Comment}}.
var {{.Name}} = func() {{.ReturnType}} {
	c := {{.CipherExpr}}
{{- if .Aligned}}
	s, err := secret.{{.Ctor}}({{.Ciphertext}}, c, {{.DisposalExpr}}, {{.Align}})
	if err != nil {
		panic(err)
	}
	return s
{{- else}}
	return secret.{{.Ctor}}({{.Ciphertext}}, c, {{.DisposalExpr}})
{{- end}}
}()
{{end}}`))

// Generate renders the manifest's secrets and writes the output file.
// With dryRun the rendered file goes to stdout instead. Unless force is
// set, an output whose embedded manifest hash matches is left alone.
func (g *Generator) Generate(outputOverride string, force, dryRun bool) error {
	sum := blake3.Sum256(g.raw)
	hash := hex.EncodeToString(sum[:])

	out := g.manifest.Output
	if outputOverride != "" {
		out = outputOverride
	}

	if !force && !dryRun && upToDate(out, hash) {
		if g.verbose {
			fmt.Fprintf(os.Stderr, "latchkey-gen: %s is up to date\n", out)
		}
		return nil
	}

	src, err := g.render(hash)
	if err != nil {
		return err
	}

	if dryRun {
		_, err := os.Stdout.Write(src)
		return err
	}

	if err := os.WriteFile(out, src, 0o644); err != nil {
		return fmt.Errorf("latchkey-gen: failed to write %s: %w", out, err)
	}
	if g.verbose {
		fmt.Fprintf(os.Stderr, "latchkey-gen: wrote %d secrets to %s\n", len(g.manifest.Secrets), out)
	}
	return nil
}

// render produces the gofmt-formatted source for all secrets.
func (g *Generator) render(hash string) ([]byte, error) {
	input := templateInput{Hash: hash, Package: g.manifest.Package}

	for i := range g.manifest.Secrets {
		s := &g.manifest.Secrets[i]
		es, err := g.buildSecret(s)
		if err != nil {
			return nil, err
		}
		if s.Cipher == "rc4" {
			input.NeedsRC4 = true
		}
		input.Secrets = append(input.Secrets, *es)
	}

	var buf bytes.Buffer
	data := struct {
		templateInput
		Marker string
	}{input, hashMarker}
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("latchkey-gen: template execution failed: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("latchkey-gen: generated source does not parse: %w", err)
	}
	return src, nil
}

// buildSecret resolves one secret's plaintext and key, encrypts, and
// prepares the template input. The plaintext buffer is shredded before
// returning; only ciphertext leaves this function.
func (g *Generator) buildSecret(s *SecretConfig) (*emittedSecret, error) {
	plaintext, err := resolvePlaintext(s)
	if err != nil {
		return nil, err
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("latchkey-gen: secret %q: plaintext is empty", s.Name)
	}

	if s.View == "string" && !utf8.Valid(plaintext) {
		memharden.Shred(plaintext)
		return nil, fmt.Errorf("latchkey-gen: secret %q: string view requires valid UTF-8 plaintext", s.Name)
	}

	key, err := resolveKey(s, g.master)
	if err != nil {
		memharden.Shred(plaintext)
		return nil, err
	}

	var (
		c          cipher.Cipher
		cipherExpr string
	)
	switch s.Cipher {
	case "xor":
		c = cipher.NewXor(key[0])
		cipherExpr = fmt.Sprintf("cipher.NewXor(0x%02x)", key[0])
	case "rc4":
		rc, err := cipher.NewRC4(key)
		if err != nil {
			memharden.Shred(plaintext)
			return nil, fmt.Errorf("latchkey-gen: secret %q: %w", s.Name, err)
		}
		c = rc
		cipherExpr = fmt.Sprintf("mustRC4(%s)", formatBytes(key))
	}

	ct := make([]byte, len(plaintext))
	copy(ct, plaintext)
	c.Transform(ct)

	if bytes.Equal(ct, plaintext) {
		fmt.Fprintf(os.Stderr, "latchkey-gen: warning: secret %q: ciphertext equals plaintext (identity key?)\n", s.Name)
	}
	memharden.Shred(plaintext)

	es := &emittedSecret{
		Name:       s.Name,
		Comment:    fmt.Sprintf("%s, %s disposal, %s view", s.Cipher, s.Disposal, s.View),
		CipherExpr: cipherExpr,
		Ciphertext: formatBytes(ct),
		Aligned:    s.Align != 0,
		Align:      s.Align,
	}

	switch s.Disposal {
	case "zeroize":
		es.DisposalExpr = "disposal.Zeroize{}"
	case "noop":
		es.DisposalExpr = "disposal.NoOp{}"
	case "reencrypt":
		es.DisposalExpr = "disposal.ReEncrypt{Cipher: c}"
	}

	switch {
	case s.View == "string" && es.Aligned:
		es.Ctor, es.ReturnType = "StringFromCiphertextAligned", "*secret.SealedString"
	case s.View == "string":
		es.Ctor, es.ReturnType = "StringFromCiphertext", "*secret.SealedString"
	case es.Aligned:
		es.Ctor, es.ReturnType = "FromCiphertextAligned", "*secret.Sealed"
	default:
		es.Ctor, es.ReturnType = "FromCiphertext", "*secret.Sealed"
	}

	return es, nil
}

// resolvePlaintext returns the secret's plaintext bytes in a freshly
// allocated buffer the caller owns (and shreds).
func resolvePlaintext(s *SecretConfig) ([]byte, error) {
	if s.ValueFile != "" {
		data, err := os.ReadFile(s.ValueFile)
		if err != nil {
			return nil, fmt.Errorf("latchkey-gen: secret %q: failed to read value file: %w", s.Name, err)
		}
		return data, nil
	}
	return []byte(s.Value), nil
}

// upToDate reports whether the output file exists and embeds the given
// manifest hash.
func upToDate(path, hash string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(line, hashMarker); ok {
			return strings.TrimSpace(rest) == hash
		}
	}
	return false
}

// formatBytes renders a []byte literal, wrapping long payloads at twelve
// bytes per line; gofmt normalizes the indentation afterwards.
func formatBytes(b []byte) string {
	var sb strings.Builder
	if len(b) <= 12 {
		sb.WriteString("[]byte{")
		for i, v := range b {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "0x%02x", v)
		}
		sb.WriteString("}")
		return sb.String()
	}

	sb.WriteString("[]byte{\n")
	for i := 0; i < len(b); i += 12 {
		end := i + 12
		if end > len(b) {
			end = len(b)
		}
		sb.WriteString("\t")
		for _, v := range b[i:end] {
			fmt.Fprintf(&sb, "0x%02x, ", v)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}
