package util

import "testing"

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	if a != b {
		t.Error("ContentHash is not deterministic")
	}

	if ContentHash([]byte("hello")) == ContentHash([]byte("world")) {
		t.Error("different content produced the same hash")
	}

	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}

	if ContentHashString("hello") != a {
		t.Error("ContentHashString disagrees with ContentHash")
	}
}
