package scan

import "time"

// Outcome is the raw result of one HTTP attempt against one site.
// When Err is set the attempt failed at the transport level and every
// other field except URL is zero.
type Outcome struct {
	URL        string // probed URL, username already substituted
	StatusCode int
	FinalURL   string // after redirects
	Body       string
	Elapsed    time.Duration
	Err        error
}

// RejectReason says which verification stage disqualified a response.
type RejectReason int

const (
	StatusMismatch RejectReason = iota
	TooShort
	SoftContent
	LoginRedirect
	RuleViolation
	UsernameAbsent
)

func (r RejectReason) String() string {
	switch r {
	case StatusMismatch:
		return "status mismatch"
	case TooShort:
		return "content too short"
	case SoftContent:
		return "soft 404"
	case LoginRedirect:
		return "login redirect"
	case RuleViolation:
		return "content rule violation"
	case UsernameAbsent:
		return "username absent"
	}
	return "unknown"
}

type VerdictKind int

const (
	VerdictConfirmed VerdictKind = iota
	VerdictRejected
	VerdictTransportFailed
)

// Verdict is the verifier's decision for one probe.
// Reason is meaningful only when Kind is VerdictRejected.
type Verdict struct {
	Kind   VerdictKind
	Reason RejectReason
}

// Result is one confirmed hit. Immutable once produced by the scorer.
type Result struct {
	Site       string  `json:"site"`
	Category   string  `json:"category"`
	URL        string  `json:"url"`
	FinalURL   string  `json:"final_url,omitempty"`
	Title      string  `json:"title,omitempty"`
	Confidence float64 `json:"confidence"`
	Signals    int     `json:"signals"`
}

// Config tunes the engine. Zero values fall back to defaults in New.
type Config struct {
	Concurrency  int
	UserAgent    string
	BaseDelay    time.Duration
	Jitter       time.Duration
	MaxBodyBytes int64
}

// FalsePositiveCache is the per-site/username rejection history the engine
// consults for scoring and updates on every rejection. Implementations must
// be safe for concurrent use.
type FalsePositiveCache interface {
	Count(site, username string) int
	Increment(site, username string) int
}
