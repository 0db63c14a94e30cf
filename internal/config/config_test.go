package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CLAIMIT_TEST_KEY", "from-env")
	if got := GetEnv("CLAIMIT_TEST_KEY", "fallback"); got != "from-env" {
		t.Errorf("expected env value, got %q", got)
	}
	if got := GetEnv("CLAIMIT_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("CLAIMIT_TEST_DUR", "90s")
	if got := GetDuration("CLAIMIT_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("expected 90s, got %v", got)
	}

	// Bare numbers read as seconds.
	t.Setenv("CLAIMIT_TEST_DUR", "120")
	if got := GetDuration("CLAIMIT_TEST_DUR", time.Minute); got != 2*time.Minute {
		t.Errorf("expected 2m, got %v", got)
	}

	// Zero is a real value, not a miss; it disables the cache.
	t.Setenv("CLAIMIT_TEST_DUR", "0")
	if got := GetDuration("CLAIMIT_TEST_DUR", time.Minute); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}

	t.Setenv("CLAIMIT_TEST_DUR", "garbage")
	if got := GetDuration("CLAIMIT_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("expected default on parse failure, got %v", got)
	}
}
