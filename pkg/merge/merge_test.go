package merge_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/smykla-skalski/devws/pkg/merge"
)

func TestDeepMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     map[string]any
		override map[string]any
		want     map[string]any
	}{
		{
			name: "user scalar replaces default",
			base: map[string]any{
				"default_gcs_profile": "default",
				"home_sync_migrated":  true,
			},
			override: map[string]any{
				"default_gcs_profile": "staging",
			},
			want: map[string]any{
				"default_gcs_profile": "staging",
				"home_sync_migrated":  true,
			},
		},
		{
			name: "nested profile maps merge key-wise",
			base: map[string]any{
				"gcs_profiles": map[string]any{
					"default": map[string]any{
						"project_id":  "proj-a",
						"bucket_name": "bucket-a",
					},
				},
			},
			override: map[string]any{
				"gcs_profiles": map[string]any{
					"staging": map[string]any{
						"project_id":  "proj-b",
						"bucket_name": "bucket-b",
					},
				},
			},
			want: map[string]any{
				"gcs_profiles": map[string]any{
					"default": map[string]any{
						"project_id":  "proj-a",
						"bucket_name": "bucket-a",
					},
					"staging": map[string]any{
						"project_id":  "proj-b",
						"bucket_name": "bucket-b",
					},
				},
			},
		},
		{
			name: "candidate list replaced not merged",
			base: map[string]any{
				"local_sync_candidates": []any{"*.env"},
			},
			override: map[string]any{
				"local_sync_candidates": []any{"*.env", ".envrc"},
			},
			want: map[string]any{
				"local_sync_candidates": []any{"*.env", ".envrc"},
			},
		},
		{
			name: "null override removes the key",
			base: map[string]any{
				"keep":   "value",
				"remove": "value",
			},
			override: map[string]any{
				"remove": nil,
			},
			want: map[string]any{
				"keep": "value",
			},
		},
		{
			name: "null inside a nested map removes that entry",
			base: map[string]any{
				"gcs_profiles": map[string]any{
					"keep":   map[string]any{"project_id": "p"},
					"remove": map[string]any{"project_id": "q"},
				},
			},
			override: map[string]any{
				"gcs_profiles": map[string]any{
					"remove": nil,
				},
			},
			want: map[string]any{
				"gcs_profiles": map[string]any{
					"keep": map[string]any{"project_id": "p"},
				},
			},
		},
		{
			name: "type override wins",
			base: map[string]any{
				"value": "string",
			},
			override: map[string]any{
				"value": float64(123),
			},
			want: map[string]any{
				"value": float64(123),
			},
		},
		{
			name:     "nil base",
			override: map[string]any{"key": "value"},
			want:     map[string]any{"key": "value"},
		},
		{
			name: "nil override copies base",
			base: map[string]any{"key": "value"},
			want: map[string]any{"key": "value"},
		},
		{
			name: "both nil yield an empty document",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := merge.DeepMerge(tt.base, tt.override)
			if err != nil {
				t.Fatalf("DeepMerge() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DeepMerge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	base := map[string]any{"a": "base", "b": "base"}
	override := map[string]any{"a": "override"}

	if _, err := merge.DeepMerge(base, override); err != nil {
		t.Fatalf("DeepMerge() error = %v", err)
	}

	if base["a"] != "base" {
		t.Errorf("DeepMerge() mutated the base layer: %v", base)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantKey string
	}{
		{
			name: "valid config document",
			input: `
gcs_profiles:
  default:
    project_id: my-project
    bucket_name: my-bucket
default_gcs_profile: default
`,
			wantKey: "gcs_profiles",
		},
		{
			name:    "invalid YAML",
			input:   "key: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := merge.ParseYAML([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseYAML() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				if _, ok := got[tt.wantKey]; !ok {
					t.Errorf("ParseYAML() result missing key %q: %v", tt.wantKey, got)
				}
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"local_sync_candidates": []any{"*.env"},
		"pattern":               "a<b>&c",
	}

	out, err := merge.MarshalJSON(doc)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	if !strings.Contains(string(out), "a<b>&c") {
		t.Errorf("MarshalJSON() escaped HTML characters: %s", out)
	}

	if strings.HasSuffix(string(out), "\n") {
		t.Errorf("MarshalJSON() output ends with newline: %q", out)
	}
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"default_gcs_profile": "staging",
		"gcs_profiles": map[string]any{
			"staging": map[string]any{"project_id": "proj-b"},
		},
	}

	out, err := merge.MarshalYAML(doc)
	if err != nil {
		t.Fatalf("MarshalYAML() error = %v", err)
	}

	back, err := merge.ParseYAML(out)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	if diff := cmp.Diff(doc, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
