package setup

import "testing"

func TestVersionAtLeast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current string
		minimum string
		want    bool
		wantErr bool
	}{
		{name: "major above floor", current: "22.1.0", minimum: "20", want: true},
		{name: "major below floor", current: "18.20.0", minimum: "20", want: false},
		{name: "major equal compares only the major", current: "20.0.0", minimum: "20", want: true},
		{name: "minor above floor", current: "3.11.2", minimum: "3.9", want: true},
		{name: "minor below floor", current: "3.8.10", minimum: "3.9", want: false},
		{name: "exactly the floor", current: "3.9", minimum: "3.9", want: true},
		{name: "current shorter than minimum", current: "3", minimum: "3.9", want: false},
		{name: "double digit beats single digit numerically", current: "3.10", minimum: "3.9", want: true},
		{name: "garbage current segment", current: "3.x", minimum: "3.9", wantErr: true},
		{name: "garbage minimum segment", current: "3.11", minimum: "3.y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := versionAtLeast(tt.current, tt.minimum)

			if (err != nil) != tt.wantErr {
				t.Fatalf("versionAtLeast(%q, %q) error = %v, wantErr %v", tt.current, tt.minimum, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("versionAtLeast(%q, %q) = %v, want %v", tt.current, tt.minimum, got, tt.want)
			}
		})
	}
}
