package env

import "testing"

func TestGetReturnsValueWhenSet(t *testing.T) {
	t.Setenv("COZIYOO_ENV_TEST_KEY", "console")
	if got := Get("COZIYOO_ENV_TEST_KEY", "json"); got != "console" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestGetFallsBackWhenUnset(t *testing.T) {
	if got := Get("COZIYOO_ENV_TEST_MISSING", "json"); got != "json" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestGetFallsBackWhenEmpty(t *testing.T) {
	t.Setenv("COZIYOO_ENV_TEST_EMPTY", "")
	if got := Get("COZIYOO_ENV_TEST_EMPTY", "json"); got != "json" {
		t.Fatalf("empty value must use fallback, got %q", got)
	}
}
