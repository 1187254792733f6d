package envutil

import (
	"testing"
	"time"
)

func TestParsersFallBackOnGarbage(t *testing.T) {
	t.Setenv("TUTOR_TEST_INT", "abc")
	t.Setenv("TUTOR_TEST_FLOAT", "0.7")
	t.Setenv("TUTOR_TEST_BOOL", "off")
	t.Setenv("TUTOR_TEST_DUR", "45")

	if got := Int("TUTOR_TEST_INT", 3); got != 3 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Float("TUTOR_TEST_FLOAT", 0); got != 0.7 {
		t.Fatalf("Float: got %v", got)
	}
	if got := Bool("TUTOR_TEST_BOOL", true); got {
		t.Fatalf("Bool: expected false")
	}
	if got := Duration("TUTOR_TEST_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("Duration: got %v", got)
	}
	if got := String("TUTOR_TEST_MISSING", "10th"); got != "10th" {
		t.Fatalf("String: got %q", got)
	}
}
