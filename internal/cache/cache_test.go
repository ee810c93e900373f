package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("corpus", "https://example.com/kjv.txt")
	b := CacheKey("corpus", "https://example.com/kjv.txt")
	if a != b {
		t.Errorf("Expected stable key, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "selah:v1:corpus:") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
	if CacheKey("match", "ab", "c") == CacheKey("match", "a", "bc") {
		t.Error("Expected part boundaries to change the key")
	}
	if CacheKey("corpus", "x") == CacheKey("match", "x") {
		t.Error("Expected namespaces to produce different keys")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Expected v, got %q (found=%v)", val, found)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("Expected key to be deleted")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCache_SetGet(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := CacheKey("corpus", "https://example.com/kjv.txt")
	if err := c.Set(key, []byte("In the beginning"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get(key)
	if !found || string(val) != "In the beginning" {
		t.Errorf("Unexpected value %q (found=%v)", val, found)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one file, got %d", len(entries))
	}
	if strings.ContainsAny(entries[0].Name(), ":/") {
		t.Errorf("Expected sanitized file name, got %s", entries[0].Name())
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte("x"), -time.Second)
	if _, found := c.Get("old"); found {
		t.Error("Expected expired entry to miss")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.cache"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("bad"); found {
		t.Error("Expected corrupt entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.cache")); !os.IsNotExist(err) {
		t.Error("Expected corrupt entry to be removed")
	}
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Delete("nope"); err != nil {
		t.Errorf("Expected no error deleting missing key, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	// Write only to disk, as a previous process would have.
	if err := NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", val, found)
	}
	if _, found := c.memory.Get("k"); !found {
		t.Error("Expected disk hit to be promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected cache to be empty after Clear")
	}
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	_ = c.Set("k", []byte("v"), 0)
	if _, found := c.Get("k"); found {
		t.Error("Nop cache must never hit")
	}
}
