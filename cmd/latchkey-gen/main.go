// latchkey-gen is the build-time half of latchkey: it reads a YAML manifest
// of secrets, encrypts each one, and emits a Go source file containing only
// ciphertext literals and the constructor calls that seal them. Run before
// `go build` (typically via go:generate) so plaintext never appears in the
// compiled binary's static data.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/stonewall-atlas/latchkey/pkg/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "generate":
		generateCommand(os.Args[2:])
	case "validate":
		validateCommand(os.Args[2:])
	case "init":
		initCommand(os.Args[2:])
	case "version":
		fmt.Println("latchkey-gen " + version.String())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  generate  Encrypt manifest secrets and write the Go source file\n")
	fmt.Fprintf(os.Stderr, "  validate  Check the manifest without writing anything\n")
	fmt.Fprintf(os.Stderr, "  init      Write a starter manifest\n")
	fmt.Fprintf(os.Stderr, "  version   Show version information\n")
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -h' for help on a specific command.\n", os.Args[0])
}

func generateCommand(args []string) {
	fs := pflag.NewFlagSet("generate", pflag.ExitOnError)
	manifestPath := fs.String("manifest", "latchkey.yaml", "path to the secrets manifest")
	output := fs.String("output", "", "override the manifest's output path")
	masterEnv := fs.String("master-env", "LATCHKEY_MASTER", "environment variable holding the master secret for derived keys")
	force := fs.Bool("force", false, "regenerate even if the manifest is unchanged")
	dryRun := fs.Bool("dry-run", false, "print the generated file to stdout instead of writing it")
	verbose := fs.BoolP("verbose", "v", false, "verbose output")
	_ = fs.Parse(args)

	m, raw, err := LoadManifest(*manifestPath)
	if err != nil {
		fatal(err)
	}
	if err := m.Validate(); err != nil {
		fatal(err)
	}

	// The master secret is optional: only secrets without explicit keys
	// need it, and resolveKey reports the gap per secret.
	master := []byte(os.Getenv(*masterEnv))

	g := NewGenerator(m, raw, master, *verbose)
	if err := g.Generate(*output, *force, *dryRun); err != nil {
		fatal(err)
	}
}

func validateCommand(args []string) {
	fs := pflag.NewFlagSet("validate", pflag.ExitOnError)
	manifestPath := fs.String("manifest", "latchkey.yaml", "path to the secrets manifest")
	verbose := fs.BoolP("verbose", "v", false, "verbose output")
	_ = fs.Parse(args)

	m, _, err := LoadManifest(*manifestPath)
	if err != nil {
		fatal(err)
	}
	if err := m.Validate(); err != nil {
		fatal(err)
	}
	if *verbose {
		for _, s := range m.Secrets {
			fmt.Fprintf(os.Stderr, "  %s: %s, %s disposal, %s view\n", s.Name, s.Cipher, s.Disposal, s.View)
		}
	}
	fmt.Printf("%s: %d secrets, manifest OK\n", *manifestPath, len(m.Secrets))
}

func initCommand(args []string) {
	fs := pflag.NewFlagSet("init", pflag.ExitOnError)
	manifestPath := fs.String("manifest", "latchkey.yaml", "path to write the starter manifest")
	_ = fs.Parse(args)

	if _, err := os.Stat(*manifestPath); err == nil {
		fatal(fmt.Errorf("latchkey-gen: %s already exists, refusing to overwrite", *manifestPath))
	}
	if err := SaveManifest(DefaultManifest(), *manifestPath); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s\n", *manifestPath)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
