package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dedsec1121fk/footprint/internal/scan"
)

// Confidence buckets for the human-readable report.
const (
	highConfidence   = 0.85
	mediumConfidence = 0.65
)

// ResultStore holds one username's confirmed hits and persists the full
// set on every append, so a crash mid-run loses at most nothing. Appends
// from concurrent workers serialize on one lock; these writes are rare
// next to HTTP latency, so correctness wins over throughput.
type ResultStore struct {
	mu       sync.Mutex
	username string
	proxied  bool
	jsonPath string
	textPath string
	results  []scan.Result
	log      *logrus.Logger
}

// NewResultStore creates results/<username>/ and an empty store for it.
func NewResultStore(dir, username string, proxied bool, log *logrus.Logger) (*ResultStore, error) {
	userDir := filepath.Join(dir, username)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create results dir")
	}
	return &ResultStore{
		username: username,
		proxied:  proxied,
		jsonPath: filepath.Join(userDir, "results.json"),
		textPath: filepath.Join(userDir, "report.txt"),
		log:      log,
	}, nil
}

// Append records a confirmed hit and synchronously persists the updated
// set. A persistence failure is logged, not returned: the scan continues
// and the next append (or Flush) rewrites the full snapshot anyway.
func (s *ResultStore) Append(r scan.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	s.persistLocked()
}

// Flush rewrites the current snapshot. Idempotent; called at shutdown.
func (s *ResultStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

// Results returns a copy sorted by descending confidence.
func (s *ResultStore) Results() []scan.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]scan.Result, len(s.results))
	copy(out, s.results)
	sortByConfidence(out)
	return out
}

func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *ResultStore) persistLocked() {
	sorted := make([]scan.Result, len(s.results))
	copy(sorted, s.results)
	sortByConfidence(sorted)

	if err := writeAtomic(s.jsonPath, s.encodeJSON(sorted)); err != nil {
		s.log.WithError(err).WithField("path", s.jsonPath).Warn("failed to persist results")
	}
	if err := writeAtomic(s.textPath, []byte(s.Render(sorted))); err != nil {
		s.log.WithError(err).WithField("path", s.textPath).Warn("failed to persist report")
	}
}

func (s *ResultStore) encodeJSON(sorted []scan.Result) []byte {
	raw, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		// Results are plain structs; this cannot realistically fail.
		s.log.WithError(err).Warn("failed to encode results")
		return []byte("[]")
	}
	return raw
}

// Render produces the human-readable report, highest confidence first.
func (s *ResultStore) Render(sorted []scan.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Footprint results for %s\n", s.username)
	fmt.Fprintf(&b, "Proxy used: %s\n", yesNo(s.proxied))
	fmt.Fprintf(&b, "Confirmed profiles: %d\n\n", len(sorted))

	for _, r := range sorted {
		fmt.Fprintf(&b, "[%s] %s (%s)\n", bucket(r.Confidence), r.Site, r.Category)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", r.Title)
		}
		fmt.Fprintf(&b, "Confidence: %.2f\n\n", r.Confidence)
	}
	return b.String()
}

func bucket(confidence float64) string {
	switch {
	case confidence >= highConfidence:
		return "HIGH"
	case confidence >= mediumConfidence:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func sortByConfidence(rs []scan.Result) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Confidence != rs[j].Confidence {
			return rs[i].Confidence > rs[j].Confidence
		}
		return rs[i].Site < rs[j].Site
	})
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
