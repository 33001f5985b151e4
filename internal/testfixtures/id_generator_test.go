package testfixtures

import (
	"sync"
	"testing"
)

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("room")

	if first, second := gen.Next(), gen.Next(); first != "room-1" || second != "room-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}

	gen.Reset()
	if next := gen.NextFunc()(); next != "room-1" {
		t.Fatalf("expected room-1 after reset, got %q", next)
	}
}

func TestIDGeneratorDefaultsPrefix(t *testing.T) {
	if got := NewIDGenerator("").Next(); got != "id-1" {
		t.Fatalf("expected id-1, got %q", got)
	}
}

func TestIDGeneratorConcurrentUseIsUnique(t *testing.T) {
	gen := NewIDGenerator("reservation")
	const workers = 16

	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, workers)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
	if gen.Issued() != workers {
		t.Fatalf("expected %d issued identifiers, got %d", workers, gen.Issued())
	}
}
