package shortlink

import (
	"strings"
	"testing"
)

func TestCryptoCodeGeneratorGenerate(t *testing.T) {
	g := NewCryptoCodeGenerator()

	t.Run("correct length", func(t *testing.T) {
		code, err := g.Generate(8)
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 8 {
			t.Errorf("got length %d, want 8", len(code))
		}
	})

	t.Run("alphanumeric alphabet only", func(t *testing.T) {
		code, err := g.Generate(200)
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Errorf("code contains non-alphanumeric char: %q", c)
			}
		}
	})

	t.Run("zero length uses default", func(t *testing.T) {
		code, err := g.Generate(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 {
			t.Errorf("got length %d, want 6 (default)", len(code))
		}
	})

	t.Run("negative length uses default", func(t *testing.T) {
		code, err := g.Generate(-3)
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 {
			t.Errorf("got length %d, want 6 (default)", len(code))
		}
	})

	t.Run("no duplicates over 100 calls", func(t *testing.T) {
		seen := make(map[string]struct{}, 100)
		for i := range 100 {
			code, err := g.Generate(10)
			if err != nil {
				t.Fatal(err)
			}
			if _, exists := seen[code]; exists {
				t.Fatalf("duplicate code on iteration %d: %q", i, code)
			}
			seen[code] = struct{}{}
		}
	})
}
