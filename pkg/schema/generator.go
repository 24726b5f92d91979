// Package schema generates the JSON Schemas published for devws
// configuration files.
package schema

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"

	"github.com/smykla-skalski/devws/internal/configtypes"
)

// SchemaType identifies the type of schema to generate.
type SchemaType string

const (
	// SchemaGlobalConfig generates schema for ~/.config/devws/config.yaml
	SchemaGlobalConfig SchemaType = "config"
	// SchemaRepoSettings generates schema for the per-repository .devws.yaml
	SchemaRepoSettings SchemaType = "repo-settings"
)

// SchemaOutput represents a generated schema with its metadata.
type SchemaOutput struct {
	// Name is the short identifier for this schema (e.g., "config", "repo-settings")
	Name string
	// Filename is the output filename (e.g., "devws-config.schema.json")
	Filename string
	// Content is the generated JSON schema bytes
	Content []byte
}

// schemaBaseURL is where published schemas are hosted. Each schema's $id is
// this prefix plus its filename.
const schemaBaseURL = "https://raw.githubusercontent.com/smykla-skalski/devws/main/schemas/"

// commentDirs lists the source directories whose Go doc comments become
// JSON Schema descriptions.
var commentDirs = []string{
	"./internal/configtypes",
}

// definition describes how one schema type is produced.
type definition struct {
	subject     any
	name        string
	filename    string
	title       string
	description string
}

var definitions = map[SchemaType]definition{
	SchemaGlobalConfig: {
		subject:     &configtypes.GlobalConfig{},
		name:        "config",
		filename:    "devws-config.schema.json",
		title:       "devws Global Configuration",
		description: "User-level devws configuration: GCS profiles, sync candidates, setup components, and home sync entries. Lives at ~/.config/devws/config.yaml; WS_SYNC_CONFIG overrides the location.",
	},
	SchemaRepoSettings: {
		subject:     &configtypes.RepoSettings{},
		name:        "repo-settings",
		filename:    "repo-settings.schema.json",
		title:       "devws Repository Settings",
		description: "Per-repository sync overrides. Place at .devws.yaml in the repository root.",
	},
}

// generationOrder fixes the output order of GenerateAllSchemas.
var generationOrder = []SchemaType{SchemaGlobalConfig, SchemaRepoSettings}

// GenerateSchemaForType generates JSON Schema for the specified schema type.
func GenerateSchemaForType(modulePath string, schemaType SchemaType) (*SchemaOutput, error) {
	def, ok := definitions[schemaType]
	if !ok {
		return nil, errors.Newf("unknown schema type: %s", schemaType)
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
	}

	for _, dir := range commentDirs {
		if err := reflector.AddGoComments(modulePath, dir); err != nil {
			return nil, errors.Wrapf(err, "loading Go comments from %s", dir)
		}
	}

	schema := reflector.Reflect(def.subject)
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.ID = jsonschema.ID(schemaBaseURL + def.filename)
	schema.Title = def.title
	schema.Description = def.description

	content, err := renderSchema(schema)
	if err != nil {
		return nil, err
	}

	return &SchemaOutput{
		Name:     def.name,
		Filename: def.filename,
		Content:  content,
	}, nil
}

// GenerateAllSchemas generates all available schemas.
func GenerateAllSchemas(modulePath string) ([]*SchemaOutput, error) {
	outputs := make([]*SchemaOutput, 0, len(generationOrder))

	for _, schemaType := range generationOrder {
		output, err := GenerateSchemaForType(modulePath, schemaType)
		if err != nil {
			return nil, errors.Wrapf(err, "generating %s schema", schemaType)
		}

		outputs = append(outputs, output)
	}

	return outputs, nil
}

// renderSchema serializes the schema through a plain map so lint fixes can be
// applied, then pretty-prints it with a trailing newline for clean git diffs.
func renderSchema(schema *jsonschema.Schema) ([]byte, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "encoding schema")
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding schema document")
	}

	lintSchema(doc)

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "rendering schema document")
	}

	return append(content, '\n'), nil
}

// lintSchema walks the schema document and fixes what schema linters flag:
// description strings must not contain newlines, and "type" is redundant
// next to "enum".
func lintSchema(node any) {
	switch n := node.(type) {
	case map[string]any:
		if desc, ok := n["description"].(string); ok {
			n["description"] = strings.ReplaceAll(desc, "\n", " ")
		}

		if _, ok := n["enum"]; ok {
			delete(n, "type")
		}

		for _, child := range n {
			lintSchema(child)
		}

	case []any:
		for _, child := range n {
			lintSchema(child)
		}
	}
}
