package usecase

import (
	"fmt"
	"testing"
)

func TestIntentCache_Process(t *testing.T) {
	c := NewIntentCache()

	if !c.Process("alice|i1|a1") {
		t.Fatal("first delivery should proceed")
	}
	if c.Process("alice|i1|a1") {
		t.Error("second delivery of the same key should be rejected")
	}
	if !c.Process("bob|i1|a1") {
		t.Error("same intent from a different sender is a different key")
	}
}

func TestIntentCache_EvictsOldestHalf(t *testing.T) {
	c := NewIntentCache()

	// One past the ceiling triggers eviction of the oldest half
	for i := 0; i <= intentCacheCeiling; i++ {
		c.Process(fmt.Sprintf("key-%d", i))
	}

	if c.Len() >= intentCacheCeiling {
		t.Fatalf("cache should have shrunk, still has %d", c.Len())
	}

	// The oldest keys were forgotten and would process again
	if !c.Process("key-0") {
		t.Error("evicted key should process again")
	}
	// The newest keys are still remembered
	if c.Process(fmt.Sprintf("key-%d", intentCacheCeiling)) {
		t.Error("recent key should still be deduplicated")
	}
}
