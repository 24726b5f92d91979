// Package main generates the JSON Schemas for devws configuration files.
// The binary is never released; workflows invoke it with `go run`.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/schema"
)

const (
	modulePath = "github.com/smykla-skalski/devws"
	// schemaFileMode keeps generated schemas world-readable for CI
	// verification and external tooling.
	schemaFileMode = 0o644
)

func main() {
	generateAll := flag.Bool("all", false, "Generate all schemas (config, repo-settings)")
	outputDir := flag.String("output-dir", "", "Directory to write generated schemas into (required with --all)")
	schemaType := flag.String("type", "config", "Schema type to generate: config or repo-settings")
	flag.Parse()

	if err := run(*generateAll, *outputDir, *schemaType); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(generateAll bool, outputDir, schemaType string) error {
	if generateAll {
		if outputDir == "" {
			return errors.New("--all requires --output-dir")
		}

		return writeAllSchemas(outputDir)
	}

	st := schema.SchemaType(schemaType)
	if st != schema.SchemaGlobalConfig && st != schema.SchemaRepoSettings {
		return errors.Newf("invalid schema type %q: must be %q or %q",
			schemaType, schema.SchemaGlobalConfig, schema.SchemaRepoSettings)
	}

	output, err := schema.GenerateSchemaForType(modulePath, st)
	if err != nil {
		return err
	}

	// A single schema goes to stdout so workflows can redirect it.
	fmt.Printf("%s", output.Content)

	return nil
}

func writeAllSchemas(outputDir string) error {
	outputs, err := schema.GenerateAllSchemas(modulePath)
	if err != nil {
		return err
	}

	for _, output := range outputs {
		dest := filepath.Join(outputDir, output.Filename)

		if err := os.WriteFile(dest, output.Content, schemaFileMode); err != nil {
			return errors.Wrapf(err, "writing %s", dest)
		}

		fmt.Printf("wrote %s\n", dest)
	}

	return nil
}
