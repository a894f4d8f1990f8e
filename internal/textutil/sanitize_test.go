package textutil

import "testing"

func TestNormalizeNameComposesDecomposedInput(t *testing.T) {
	decomposed := "re\u0301sume\u0301"
	composed := "r\u00e9sum\u00e9"
	if got := NormalizeName(decomposed); got != composed {
		t.Fatalf("NormalizeName(%q) = %q, want %q", decomposed, got, composed)
	}
	if NormalizeName(" "+composed+" ") != composed {
		t.Fatal("expected surrounding whitespace to be trimmed")
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"/a/b/cat.jpg":      "cat",
		"dog.final.PNG":     "dog.final",
		"noext":             "noext",
		"/dir/.hidden.webp": ".hidden",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"  ", "unknown"},
		{"Output Dir", "output_dir"},
		{"__--", "unknown"},
		{"Videos-2024", "videos-2024"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
