package instance

import "testing"

func TestIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("WORKER_ID", "")
	if got := ID(); got != "local" {
		t.Fatalf("expected local fallback, got %q", got)
	}
	t.Setenv("WORKER_ID", "worker-3")
	if got := ID(); got != "worker-3" {
		t.Fatalf("expected worker id, got %q", got)
	}
	t.Setenv("DYNO", "web.1")
	if got := ID(); got != "web.1" {
		t.Fatalf("expected dyno id, got %q", got)
	}
}
