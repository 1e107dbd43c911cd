package scan

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/dedsec1121fk/footprint/internal/catalog"
)

// soft404Phrases flag "success" responses whose content says the profile
// does not exist. English-only; internationalized sites slip through.
var soft404Phrases = []string{
	"page not found",
	"user not found",
	"profile not found",
	"account suspended",
	"account has been suspended",
	"deactivated",
	"no longer available",
	"doesn't exist",
	"does not exist",
	"nothing here",
	"couldn't find this",
	"been removed",
}

// loginKeywords in a post-redirect path mean the profile URL bounced to a
// generic landing page.
var loginKeywords = []string{
	"login",
	"signin",
	"auth",
	"account/restricted",
	"home",
}

// soft404Window bounds how much of the body the phrase scan may touch when
// no title is available, so an incidental mention deep in a real profile
// page cannot reject it.
const soft404Window = 2000

// Verifier decides hit/miss/ambiguous for one probe. Verify is a pure
// function of its inputs; the caches only memoize compiled expressions.
type Verifier struct {
	regexCache    sync.Map // pattern -> *regexp2.Regexp
	regexErrCache sync.Map // pattern -> struct{}, degrade to substring
	usernameCache sync.Map // username -> *regexp.Regexp
}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify runs the verification stages in order, cheapest and most
// discriminating first, short-circuiting on the first failure.
func (v *Verifier) Verify(out Outcome, site catalog.SiteConfig, username string) Verdict {
	if out.Err != nil {
		return Verdict{Kind: VerdictTransportFailed}
	}

	// Stage 1: status code.
	if !site.StatusValid(out.StatusCode) {
		return rejected(StatusMismatch)
	}
	// A HEAD success has no body to inspect; accept it as a weaker signal.
	if site.Method == http.MethodHead {
		return Verdict{Kind: VerdictConfirmed}
	}

	// Stage 2: minimum length. Undecodable bodies count as empty.
	body := out.Body
	if !utf8.ValidString(body) {
		body = ""
	}
	if len(body) < site.MinContentLength {
		return rejected(TooShort)
	}
	lowered := strings.ToLower(body)

	// Stage 3: soft-404 phrases.
	if !site.IgnoreGlobalSoft404 && softNotFound(body, lowered) {
		return rejected(SoftContent)
	}

	// Stage 4: redirect to a login or landing page.
	if loginRedirected(out.URL, out.FinalURL) {
		return rejected(LoginRedirect)
	}

	// Stage 5: site-specific content rules.
	if !v.rulesPass(body, lowered, site.ContentRules) {
		return rejected(RuleViolation)
	}

	// Stage 6: username presence, whole word.
	if !site.AllowNoUsernameMatch && !v.usernameInBody(body, username) {
		return rejected(UsernameAbsent)
	}

	return Verdict{Kind: VerdictConfirmed}
}

func rejected(reason RejectReason) Verdict {
	return Verdict{Kind: VerdictRejected, Reason: reason}
}

// softNotFound checks the page title against the universal phrase set, or
// the first soft404Window bytes of the body when no title exists.
func softNotFound(body, lowered string) bool {
	if title := extractTitle(body); title != "" {
		return containsAny(strings.ToLower(title), soft404Phrases)
	}
	window := lowered
	if len(window) > soft404Window {
		window = window[:soft404Window]
	}
	return containsAny(window, soft404Phrases)
}

// loginRedirected rejects redirect chains ending on a login page or on the
// bare domain root, the usual shape of "profile missing, go sign up".
func loginRedirected(probed, final string) bool {
	if final == "" || final == probed {
		return false
	}
	u, err := url.Parse(final)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if path == "" || path == "/" {
		return true
	}
	return containsAny(path, loginKeywords)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func (v *Verifier) rulesPass(body, lowered string, rules catalog.ContentRules) bool {
	for _, bad := range rules.MustNotContain {
		if strings.Contains(lowered, strings.ToLower(bad)) {
			return false
		}
	}
	for _, good := range rules.MustContain {
		if !strings.Contains(lowered, strings.ToLower(good)) {
			return false
		}
	}
	for _, pattern := range rules.RegexPatterns {
		if !v.patternMatches(body, lowered, pattern) {
			return false
		}
	}
	return true
}

// patternMatches evaluates one regex rule. A pattern that will not compile
// degrades to a case-insensitive substring check; a bad catalog entry must
// not crash or fail the whole site.
func (v *Verifier) patternMatches(body, lowered, pattern string) bool {
	if _, bad := v.regexErrCache.Load(pattern); bad {
		return strings.Contains(lowered, strings.ToLower(pattern))
	}

	var re *regexp2.Regexp
	if cached, ok := v.regexCache.Load(pattern); ok {
		re = cached.(*regexp2.Regexp)
	} else {
		compiled, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
		if err != nil {
			v.regexErrCache.Store(pattern, struct{}{})
			return strings.Contains(lowered, strings.ToLower(pattern))
		}
		v.regexCache.Store(pattern, compiled)
		re = compiled
	}

	ok, err := re.MatchString(body)
	if err != nil {
		return strings.Contains(lowered, strings.ToLower(pattern))
	}
	return ok
}

// usernameInBody requires the username as a whole word, case-insensitive.
func (v *Verifier) usernameInBody(body, username string) bool {
	var re *regexp.Regexp
	if cached, ok := v.usernameCache.Load(username); ok {
		re = cached.(*regexp.Regexp)
	} else {
		re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(username) + `\b`)
		v.usernameCache.Store(username, re)
	}
	return re.MatchString(body)
}
