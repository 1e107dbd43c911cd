package store

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FPCache is the persistent false-positive history: how many times each
// site:username pair has been rejected across runs. Counts only grow
// within a run; the only way to reset one is deleting the file.
type FPCache struct {
	mu     sync.Mutex
	path   string
	counts map[string]int
	log    *logrus.Logger
}

// LoadFPCache reads the cache from path. A missing or corrupt file yields
// an empty cache with a logged warning; stale distrust data is never worth
// aborting a scan over.
func LoadFPCache(path string, log *logrus.Logger) *FPCache {
	c := &FPCache{
		path:   path,
		counts: make(map[string]int),
		log:    log,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("false-positive cache unreadable, starting empty")
		}
		return c
	}
	if err := json.Unmarshal(raw, &c.counts); err != nil {
		log.WithError(err).Warn("false-positive cache corrupt, starting empty")
		c.counts = make(map[string]int)
	}
	return c
}

func key(site, username string) string {
	return site + ":" + username
}

func (c *FPCache) Count(site, username string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key(site, username)]
}

// Increment records one more rejection and returns the new count.
func (c *FPCache) Increment(site, username string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(site, username)
	c.counts[k]++
	return c.counts[k]
}

func (c *FPCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

// Save writes the cache atomically. Safe to call more than once; a flush
// retried during shutdown rewrites the same snapshot.
func (c *FPCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.MarshalIndent(c.counts, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode false-positive cache")
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "write false-positive cache")
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return errors.Wrap(err, "replace false-positive cache")
	}
	return nil
}
