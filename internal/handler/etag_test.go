package handler

import (
	"strings"
	"testing"
)

func TestEtagForIsDeterministicAndQuoted(t *testing.T) {
	a := etagFor([]byte(`{"items":[]}`))
	b := etagFor([]byte(`{"items":[]}`))
	if a != b {
		t.Fatalf("same body must yield the same tag: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, `"`) || !strings.HasSuffix(a, `"`) {
		t.Fatalf("tag must be quoted: %q", a)
	}
	if c := etagFor([]byte(`{"items":[1]}`)); c == a {
		t.Fatal("different bodies must yield different tags")
	}
}

func TestListCacheKeyVariesByQuery(t *testing.T) {
	a := listCacheKey("animals", "page=1&limit=10")
	b := listCacheKey("animals", "page=2&limit=10")
	if a == b {
		t.Fatalf("different queries must map to different keys: %q", a)
	}
	if !strings.HasPrefix(a, "list:animals:") {
		t.Fatalf("unexpected key shape: %q", a)
	}
}

func TestBumpGenerationRetiresListKeys(t *testing.T) {
	before := listCacheKey("breeds", "page=1")
	bumpGeneration("breeds")
	after := listCacheKey("breeds", "page=1")
	if before == after {
		t.Fatal("a write must retire the previous generation of list keys")
	}

	// other resources keep their generation
	x := listCacheKey("vaccines", "page=1")
	bumpGeneration("breeds")
	if y := listCacheKey("vaccines", "page=1"); x != y {
		t.Fatalf("unrelated resource key changed: %q vs %q", x, y)
	}
}
