package shortlink

import "testing"

func TestSHA256Hasher(t *testing.T) {
	h := NewSHA256Hasher()

	t.Run("deterministic", func(t *testing.T) {
		if h.Hash("secret123") != h.Hash("secret123") {
			t.Error("same input must yield the same digest")
		}
	})

	t.Run("distinct inputs yield distinct digests", func(t *testing.T) {
		inputs := []string{"a", "b", "secret123", "Secret123", "", " "}
		seen := make(map[string]string, len(inputs))
		for _, in := range inputs {
			d := h.Hash(in)
			if prev, dup := seen[d]; dup {
				t.Errorf("collision between %q and %q", prev, in)
			}
			seen[d] = in
		}
	})

	t.Run("hex encoded sha256", func(t *testing.T) {
		d := h.Hash("secret123")
		if len(d) != 64 {
			t.Errorf("got digest length %d, want 64", len(d))
		}
		// Known vector, matches any sha256 implementation.
		if want := "fcf730b6d95236ecd3c9fc2d92d7b6b2bb061514961aec041d6c7a7192f592e4"; d != want {
			t.Errorf("got %s, want %s", d, want)
		}
	})
}

func TestDigestsEqual(t *testing.T) {
	h := NewSHA256Hasher()
	a := h.Hash("p1")

	if !digestsEqual(a, h.Hash("p1")) {
		t.Error("equal digests must compare equal")
	}
	if digestsEqual(a, h.Hash("p2")) {
		t.Error("distinct digests must not compare equal")
	}
	if digestsEqual(a, "") {
		t.Error("empty digest must not match")
	}
}
