package util

import "testing"

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "shorter than max", input: "abc", max: 5, want: "abc"},
		{name: "exact", input: "abc", max: 3, want: "abc"},
		{name: "cut", input: "abcdef", max: 2, want: "ab"},
		{name: "multibyte", input: "äöüß", max: 3, want: "äöü"},
		{name: "no limit", input: "abc", max: 0, want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.max); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseSpacesAndTrimPunct(t *testing.T) {
	if got := CollapseSpaces("  Acme \n\t Corp  "); got != "Acme Corp" {
		t.Fatalf("CollapseSpaces: got %q", got)
	}
	if got := TrimPunct(`"Acme, Inc."`); got != "Acme, Inc" {
		t.Fatalf("TrimPunct: got %q", got)
	}
}
