package scan

import (
	"context"
	"sort"
	"sync"

	"github.com/dedsec1121fk/footprint/internal/catalog"
	"github.com/dedsec1121fk/footprint/internal/httpx"
)

const (
	defaultConcurrency  = 8
	defaultMaxBodyBytes = 512 << 10
)

// UnitFunc observes every finished unit of work, confirmed or not.
// completed/total let callers render progress without extra bookkeeping.
type UnitFunc func(site string, verdict Verdict, completed, total int64)

// Scanner runs one probe-verify-score-persist unit per catalog site over a
// bounded worker pool. Sites are independent; the only shared mutable
// state is the false-positive cache and whatever the callbacks touch.
type Scanner struct {
	prober      *Prober
	verifier    *Verifier
	fpCache     FalsePositiveCache
	concurrency int
}

func NewScanner(client httpx.Doer, cfg Config, fpCache FalsePositiveCache) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = httpx.DefaultUserAgent
	}

	return &Scanner{
		prober:      NewProber(client, cfg),
		verifier:    NewVerifier(),
		fpCache:     fpCache,
		concurrency: cfg.Concurrency,
	}
}

// Run scans every catalog site for username and returns all confirmed
// results. onConfirmed fires synchronously in the producing worker before
// the unit is counted, so persistence hooks cannot lose a result to an
// interrupt. On context cancellation in-flight probes finish, queued sites
// are abandoned, and Run still returns whatever was confirmed.
func (s *Scanner) Run(
	ctx context.Context,
	username string,
	cat *catalog.Catalog,
	progress *Progress,
	onConfirmed func(Result),
	onUnit UnitFunc,
) []Result {
	names := make([]string, 0, len(cat.Sites))
	for name := range cat.Sites {
		names = append(names, name)
	}
	sort.Strings(names)

	workers := s.concurrency
	if workers > len(names) {
		workers = len(names)
	}
	if workers == 0 {
		return nil
	}
	if progress == nil {
		progress = NewProgress(len(names))
	}

	jobs := make(chan string)
	confirmed := make(chan Result, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for name := range jobs {
				res, verdict, ok := s.check(ctx, username, cat.Sites[name])
				if ok {
					if onConfirmed != nil {
						onConfirmed(res)
					}
					progress.IncrementConfirmed()
				}
				if verdict.Kind == VerdictTransportFailed {
					progress.IncrementTransport()
				}
				done := progress.IncrementCompleted()
				if onUnit != nil {
					onUnit(name, verdict, done, progress.Total())
				}
				if ok {
					confirmed <- res
				}
			}
		}()
	}

	go func() {
		defer close(confirmed)
		wg.Wait()
	}()

	// Feeder: stops handing out new sites once the context is cancelled;
	// workers drain what they already started.
	go func() {
		defer close(jobs)
		for _, name := range names {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- name:
			}
		}
	}()

	var results []Result
	for res := range confirmed {
		results = append(results, res)
	}
	return results
}

// check is one full unit of work: rate-limit, probe, verify, then either
// score the hit or record the rejection. Transport failures touch nothing:
// "site unreachable" must never be confused with "site says no".
func (s *Scanner) check(ctx context.Context, username string, site catalog.SiteConfig) (Result, Verdict, bool) {
	out := s.prober.Probe(ctx, site, username)
	verdict := s.verifier.Verify(out, site, username)

	switch verdict.Kind {
	case VerdictRejected:
		s.fpCache.Increment(site.Name, username)
		return Result{}, verdict, false

	case VerdictConfirmed:
		fpHits := s.fpCache.Count(site.Name, username)
		confidence, signals, title := Score(site, out, username, fpHits)
		return Result{
			Site:       site.Name,
			Category:   site.Category,
			URL:        out.URL,
			FinalURL:   out.FinalURL,
			Title:      title,
			Confidence: confidence,
			Signals:    signals,
		}, verdict, true
	}

	return Result{}, verdict, false
}
