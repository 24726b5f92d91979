package configtypes

import "github.com/invopop/jsonschema"

// JSONSchemaExtend adds example values to the GlobalConfig schema.
func (GlobalConfig) JSONSchemaExtend(schema *jsonschema.Schema) {
	if candidatesProp, ok := schema.Properties.Get("local_sync_candidates"); ok {
		candidatesProp.Examples = []any{
			[]string{"*.env"},
			[]string{"*.env", ".envrc", "secrets/*.yaml"},
		}
	}

	if defaultProp, ok := schema.Properties.Get("default_gcs_profile"); ok {
		defaultProp.Examples = []any{"default", "staging"}
	}
}

// JSONSchemaExtend adds example values to the HomeSyncItem schema.
func (HomeSyncItem) JSONSchemaExtend(schema *jsonschema.Schema) {
	if pathProp, ok := schema.Properties.Get("path"); ok {
		pathProp.Examples = []any{
			".bashrc",
			".config/nvim",
		}
	}
}

// JSONSchemaExtend adds example values to the RepoSyncSettings schema.
func (RepoSyncSettings) JSONSchemaExtend(schema *jsonschema.Schema) {
	if ignoreProp, ok := schema.Properties.Get("ignore"); ok {
		ignoreProp.Examples = []any{
			[]string{"*.local.env"},
			[]string{"tmp/**", "*.bak"},
		}
	}
}
