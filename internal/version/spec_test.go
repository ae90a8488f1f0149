package version

import "testing"

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Spec
		wantErr bool
	}{
		{
			name: "full",
			raw:  "3.12.7",
			want: Spec{Shape: Full, Major: 3, Minor: 12, Patch: 7, Raw: "3.12.7"},
		},
		{
			name: "major_minor",
			raw:  "3.12",
			want: Spec{Shape: MajorMinor, Major: 3, Minor: 12, Raw: "3.12"},
		},
		{
			name: "major_only",
			raw:  "20",
			want: Spec{Shape: MajorOnly, Major: 20, Raw: "20"},
		},
		{
			name: "zero_component",
			raw:  "1.0.0",
			want: Spec{Shape: Full, Major: 1, Minor: 0, Patch: 0, Raw: "1.0.0"},
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "four_components", raw: "1.2.3.4", wantErr: true},
		{name: "leading_v", raw: "v3.12", wantErr: true},
		{name: "trailing_dot", raw: "3.12.", wantErr: true},
		{name: "leading_zero", raw: "3.012", wantErr: true},
		{name: "letters", raw: "3.12.0rc1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.raw)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSpec(%q) expected error, got %+v", tt.raw, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseSpec(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSpecMatches(t *testing.T) {
	tests := []struct {
		spec     string
		concrete string
		want     bool
	}{
		{"3", "3.12.7", true},
		{"3", "3.9.19", true},
		{"3", "2.7.18", false},
		{"3.12", "3.12.7", true},
		{"3.12", "3.13.0", false},
		{"3.12.7", "3.12.7", true},
		{"3.12.7", "3.12.8", false},
		{"20", "20.11.0", true},
		{"20", "21.0.0", false},
	}

	for _, tt := range tests {
		spec, err := ParseSpec(tt.spec)
		if err != nil {
			t.Fatalf("ParseSpec(%q): %v", tt.spec, err)
		}
		if got := spec.Matches(tt.concrete); got != tt.want {
			t.Errorf("Spec(%q).Matches(%q) = %v, want %v", tt.spec, tt.concrete, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.12.7", "3.12.7", 0},
		{"3.12.8", "3.12.7", 1},
		{"3.12.7", "3.13.0", -1},
		{"3.9.19", "3.12.1", -1}, // numeric, not lexical
		{"20.11.0", "20.9.0", 1},
		{"1.22", "1.22.0", 0},
	}

	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
