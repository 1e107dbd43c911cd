package scan

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/dedsec1121fk/footprint/internal/catalog"
	"github.com/dedsec1121fk/footprint/internal/httpx"
)

// Prober issues exactly one HTTP attempt per call. Transport failures of
// any kind fold into Outcome.Err so one dead site can never take down a
// worker or touch another site's probe.
type Prober struct {
	client    httpx.Doer
	userAgent string

	baseDelay time.Duration
	jitter    time.Duration
	maxBody   int64

	rng   *rand.Rand
	rngMu sync.Mutex
}

func NewProber(client httpx.Doer, cfg Config) *Prober {
	return &Prober{
		client:    client,
		userAgent: cfg.UserAgent,
		baseDelay: cfg.BaseDelay,
		jitter:    cfg.Jitter,
		maxBody:   cfg.MaxBodyBytes,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// wait sleeps baseDelay plus a uniform random share of jitter. Each worker
// sleeps on its own; effective request rate is roughly pool size over base
// delay, which bounds burstiness without a shared token bucket.
func (p *Prober) wait(ctx context.Context) {
	delay := p.baseDelay
	if p.jitter > 0 {
		p.rngMu.Lock()
		delay += time.Duration(p.rng.Float64() * float64(p.jitter))
		p.rngMu.Unlock()
	}
	if delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// Probe runs the rate-limit delay and one request for the site.
func (p *Prober) Probe(ctx context.Context, site catalog.SiteConfig, username string) Outcome {
	p.wait(ctx)

	probeURL := site.ProfileURL(username)
	out := Outcome{URL: probeURL}

	// Cancellation gates new work at the delay above and at the feeder; a
	// request already in flight runs to completion on a detached context,
	// bounded only by the client timeout. A response that is already on the
	// wire when the run is interrupted must still produce a verdict.
	req, err := httpx.NewRequest(context.WithoutCancel(ctx), site.Method, probeURL, nil, p.userAgent)
	if err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		out.Err = err
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.FinalURL = probeURL
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = resp.Request.URL.String()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	out.Elapsed = time.Since(start)
	if err != nil {
		// A truncated read is as useless as no response.
		return Outcome{URL: probeURL, Err: err}
	}
	out.Body = string(body)

	return out
}
