package store

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestFPCacheMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fp_cache.json")
	cache := LoadFPCache(path, quietLogger())

	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", cache.Len())
	}
	if got := cache.Count("GitHub", "alice"); got != 0 {
		t.Fatalf("expected count 0, got %d", got)
	}
}

func TestFPCacheCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fp_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cache := LoadFPCache(path, quietLogger())
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after corrupt load, got %d entries", cache.Len())
	}
}

func TestFPCacheSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fp_cache.json")
	cache := LoadFPCache(path, quietLogger())

	cache.Increment("GitHub", "alice")
	cache.Increment("GitHub", "alice")
	cache.Increment("Reddit", "alice")

	if err := cache.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded := LoadFPCache(path, quietLogger())
	if got := reloaded.Count("GitHub", "alice"); got != 2 {
		t.Fatalf("expected GitHub:alice = 2 after reload, got %d", got)
	}
	if got := reloaded.Count("Reddit", "alice"); got != 1 {
		t.Fatalf("expected Reddit:alice = 1 after reload, got %d", got)
	}
	if got := reloaded.Count("Reddit", "bob"); got != 0 {
		t.Fatalf("expected Reddit:bob = 0, got %d", got)
	}
}

func TestFPCacheSaveIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fp_cache.json")
	cache := LoadFPCache(path, quietLogger())
	cache.Increment("GitHub", "alice")

	// A second flush during shutdown must not corrupt the file.
	if err := cache.Save(); err != nil {
		t.Fatal(err)
	}
	if err := cache.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded := LoadFPCache(path, quietLogger())
	if got := reloaded.Count("GitHub", "alice"); got != 1 {
		t.Fatalf("expected 1 after double save, got %d", got)
	}
}

func TestFPCacheConcurrentIncrements(t *testing.T) {
	cache := LoadFPCache(filepath.Join(t.TempDir(), "fp.json"), quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Increment("site", "alice")
		}()
	}
	wg.Wait()

	if got := cache.Count("site", "alice"); got != 50 {
		t.Fatalf("expected 50 increments, got %d", got)
	}
}
