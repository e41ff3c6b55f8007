package slug

import "testing"

func TestBuild(t *testing.T) {
	tests := map[string]string{
		"DJ  Vibe!!":           "dj-vibe",
		"DJ Vibe":              "dj-vibe",
		"dj-vibe":              "dj-vibe",
		"  Leading Spaces  ":   "leading-spaces",
		"Tabs\tand\nNewlines":  "tabs-and-newlines",
		"Ünïcode Strip":        "ncode-strip",
		"---already---dashed-": "already-dashed",
		"MiXeD CaSe 99":        "mixed-case-99",
		"!!!":                  "",
		"a - b":                "a-b",
	}
	for in, want := range tests {
		if got := Build(in); got != want {
			t.Errorf("Build(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	inputs := []string{"DJ  Vibe!!", "Some Name (Official)", "  spaced   out  ", "plain"}
	for _, in := range inputs {
		once := Build(in)
		if twice := Build(once); twice != once {
			t.Errorf("Build not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
