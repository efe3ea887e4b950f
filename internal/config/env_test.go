package config

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Run("returns value when set", func(t *testing.T) {
		t.Setenv("TEST_KEY", "hello")
		if got := GetEnv("TEST_KEY", "fallback"); got != "hello" {
			t.Errorf("got %q, want %q", got, "hello")
		}
	})

	t.Run("returns fallback when unset", func(t *testing.T) {
		if got := GetEnv("UNSET_KEY_12345", "fb"); got != "fb" {
			t.Errorf("got %q, want %q", got, "fb")
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		t.Setenv("TEST_KEY", "  value  ")
		if got := GetEnv("TEST_KEY", "fb"); got != "value" {
			t.Errorf("got %q, want %q", got, "value")
		}
	})

	t.Run("whitespace-only returns fallback", func(t *testing.T) {
		t.Setenv("TEST_KEY", "   ")
		if got := GetEnv("TEST_KEY", "fb"); got != "fb" {
			t.Errorf("got %q, want %q", got, "fb")
		}
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Run("parses valid int", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")
		if got := GetEnvInt("TEST_INT", 0); got != 42 {
			t.Errorf("got %d, want 42", got)
		}
	})

	t.Run("returns fallback on invalid", func(t *testing.T) {
		t.Setenv("TEST_INT", "not_a_number")
		if got := GetEnvInt("TEST_INT", 7); got != 7 {
			t.Errorf("got %d, want 7", got)
		}
	})
}

func TestGetEnvBool(t *testing.T) {
	t.Run("parses true", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "true")
		if !GetEnvBool("TEST_BOOL", false) {
			t.Error("got false, want true")
		}
	})

	t.Run("returns fallback on invalid", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "yep")
		if !GetEnvBool("TEST_BOOL", true) {
			t.Error("got false, want fallback true")
		}
	})
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("parses valid duration", func(t *testing.T) {
		t.Setenv("TEST_DUR", "90s")
		if got := GetEnvDuration("TEST_DUR", time.Minute); got != 90*time.Second {
			t.Errorf("got %s, want 90s", got)
		}
	})

	t.Run("returns fallback on invalid", func(t *testing.T) {
		t.Setenv("TEST_DUR", "ninety")
		if got := GetEnvDuration("TEST_DUR", time.Minute); got != time.Minute {
			t.Errorf("got %s, want 1m", got)
		}
	})
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b", []string{"a", "b"}},
		{"", []string{}},
		{" , ", []string{}},
	}

	for _, tt := range tests {
		if got := SplitCSV(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitCSV(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoadValidation(t *testing.T) {
	t.Run("rejects bad redirect status", func(t *testing.T) {
		t.Setenv("REDIRECT_STATUS", "307")
		if _, err := Load(); err == nil {
			t.Error("expected error for REDIRECT_STATUS=307")
		}
	})

	t.Run("rejects unknown store backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "dynamo")
		if _, err := Load(); err == nil {
			t.Error("expected error for STORE_BACKEND=dynamo")
		}
	})

	t.Run("rejects out-of-range code length", func(t *testing.T) {
		t.Setenv("CODE_LENGTH", "2")
		if _, err := Load(); err == nil {
			t.Error("expected error for CODE_LENGTH=2")
		}
	})
}
