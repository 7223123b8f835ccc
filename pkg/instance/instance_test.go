package instance

import (
	"strings"
	"testing"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("KUKUMART_WORKER_ID", "publisher-7")
	if got := GetID(); got != "publisher-7" {
		t.Fatalf("expected env id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("KUKUMART_WORKER_ID", "")
	if got := GetID(); !strings.HasPrefix(got, "worker-") {
		t.Fatalf("unexpected fallback id %q", got)
	}
}
