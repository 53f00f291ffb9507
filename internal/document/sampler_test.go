package document

import (
	"testing"
)

func TestSamplerReproducible(t *testing.T) {
	a := NewSampler(42)
	b := NewSampler(42)
	for i := 0; i < 50; i++ {
		if x, y := a.Post(), b.Post(); x != y {
			t.Fatalf("draw %d differs: %q vs %q", i, x, y)
		}
	}
}

func TestSamplerDrawsFromPool(t *testing.T) {
	pool := make(map[string]struct{})
	for _, p := range SamplePosts() {
		pool[p] = struct{}{}
	}
	if len(pool) != 30 {
		t.Fatalf("expected 30 distinct samples got %d", len(pool))
	}

	s := NewSampler(1)
	seen := make(map[string]int)
	for i := 0; i < 3000; i++ {
		p := s.Post()
		if _, ok := pool[p]; !ok {
			t.Fatalf("sample %q not in pool", p)
		}
		seen[p]++
	}
	if len(seen) != len(pool) {
		t.Fatalf("expected every sample drawn at least once, got %d of %d", len(seen), len(pool))
	}
}

func TestSamplePostsIsCopy(t *testing.T) {
	posts := SamplePosts()
	posts[0] = "mutated"
	if SamplePosts()[0] == "mutated" {
		t.Fatalf("pool must be immutable")
	}
}

func TestSeedFor(t *testing.T) {
	if SeedFor(1, 2, 3) != SeedFor(1, 2, 3) {
		t.Fatalf("seed must be deterministic")
	}
	if SeedFor(1, 2, 3) == SeedFor(1, 2, 4) {
		t.Fatalf("seed should differ per actor run")
	}
}
