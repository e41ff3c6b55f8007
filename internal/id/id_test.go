package id

import (
	"strings"
	"testing"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	g := RandGenerator{}
	for i := 0; i < 200; i++ {
		got := g.Generate()
		if len(got) != Length {
			t.Fatalf("Generate() length = %d; want %d (%q)", len(got), Length, got)
		}
		for _, r := range got {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("Generate() produced %q outside alphabet", r)
			}
		}
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	// A uniform 36^8 space makes 50 identical draws effectively impossible.
	g := RandGenerator{}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[g.Generate()] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected distinct identifiers, got %d unique of 50", len(seen))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"ABCD1234", "ABCD1234", true},
		{"abcd1234", "ABCD1234", true},
		{"  abcd1234  ", "ABCD1234", true},
		{"ABC123", "", false},    // too short
		{"ABCD12345", "", false}, // too long
		{"ABCD-234", "", false},  // outside alphabet
		{"ABCD 234", "", false},  // embedded space
		{"", "", false},
		{"абвгдежз", "", false}, // non-ASCII, wrong byte length anyway
	}
	for _, tc := range tests {
		got, ok := Normalize(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Normalize(%q) = (%q, %v); want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
