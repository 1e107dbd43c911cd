package scan

import (
	"math"
	"net/http"
	"strings"

	"github.com/dedsec1121fk/footprint/internal/catalog"
)

// Scoring constants. Boosts are fixed per-signal increments with a shared
// cap; the false-positive penalty grows per historical rejection up to its
// own cap so a repeatedly-lying site keeps a floor of distrust, not zero.
const (
	boostUsernameInURL   = 0.15
	boostUsernameInTitle = 0.10
	boostExactURL        = 0.10
	boostSocialMeta      = 0.15
	boostLargeBody       = 0.10
	boostCap             = 0.35

	perHitPenalty = 0.1
	penaltyCap    = 0.4

	// Bodies above this size look like populated profiles, not stubs.
	largeBodyBytes = 4096
)

// Score produces the confidence for a confirmed probe, clamped to [0,1]
// and rounded to two decimals, plus the number of positive signals and the
// page title for reporting. Only ever called after a Confirmed verdict.
func Score(site catalog.SiteConfig, out Outcome, username string, fpHits int) (confidence float64, signals int, title string) {
	base := site.Weight()
	penalty := math.Min(float64(fpHits)*perHitPenalty, penaltyCap)

	// HEAD confirmations carry no body, so no signals: deliberately the
	// weakest accepted evidence.
	if site.Method == http.MethodHead {
		return clampRound(base - penalty), 0, ""
	}

	needle := strings.ToLower(username)
	boost := 0.0

	if strings.Contains(strings.ToLower(out.FinalURL), needle) {
		boost += boostUsernameInURL
		signals++
	}

	title = extractTitle(out.Body)
	if title != "" && strings.Contains(strings.ToLower(title), needle) {
		boost += boostUsernameInTitle
		signals++
	}

	if out.FinalURL == out.URL {
		boost += boostExactURL
		signals++
	}

	if metaMentions(out.Body, username) {
		boost += boostSocialMeta
		signals++
	}

	if len(out.Body) > largeBodyBytes {
		boost += boostLargeBody
		signals++
	}

	if boost > boostCap {
		boost = boostCap
	}

	return clampRound(base + boost - penalty), signals, title
}

func clampRound(x float64) float64 {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	return math.Round(x*100) / 100
}
