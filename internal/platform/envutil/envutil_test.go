package envutil

import (
	"testing"
	"time"
)

func TestReadersFallBackOnBadValues(t *testing.T) {
	t.Setenv("EU_STR", "  value ")
	t.Setenv("EU_INT", "x")
	t.Setenv("EU_FLOAT", "0.25")
	t.Setenv("EU_BOOL", "maybe")
	t.Setenv("EU_SECS", "-3")

	if got := String("EU_STR", "d"); got != "value" {
		t.Fatalf("String: got %q", got)
	}
	if got := String("EU_UNSET", "d"); got != "d" {
		t.Fatalf("String default: got %q", got)
	}
	if got := Int("EU_INT", 7); got != 7 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Float64("EU_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float64: got %v", got)
	}
	if got := Bool("EU_BOOL", true); !got {
		t.Fatalf("Bool: expected default")
	}
	if got := Seconds("EU_SECS", time.Minute); got != time.Minute {
		t.Fatalf("Seconds: got %v", got)
	}
}

func TestBoolSpellings(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "on"} {
		t.Setenv("EU_FLAG", v)
		if !Bool("EU_FLAG", false) {
			t.Fatalf("%q should be true", v)
		}
	}
	t.Setenv("EU_FLAG", "off")
	if Bool("EU_FLAG", true) {
		t.Fatalf("off should be false")
	}
}
