package catalog

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Placeholder is the substitution slot in URL templates.
const Placeholder = "{}"

// Default values applied to optional catalog fields at load time.
const (
	DefaultConfidenceWeight = 0.6
	DefaultMinContentLength = 120
	DefaultCategory         = "Uncategorized"
)

// ContentRules describe how a site's response body is judged.
// All string matching is case-insensitive.
type ContentRules struct {
	MustContain    []string `json:"must_contain"`
	MustNotContain []string `json:"must_not_contain"`
	RegexPatterns  []string `json:"regex"`

	MinContentLength int `json:"min_content_length"`

	// AllowNoUsernameMatch disables the whole-word username check for
	// sites that never echo the handle back (numeric profile IDs etc).
	AllowNoUsernameMatch bool `json:"allow_no_username_match"`

	// IgnoreGlobalSoft404 opts the site out of the universal
	// not-found-phrase detection.
	IgnoreGlobalSoft404 bool `json:"ignore_global_soft_404"`
}

// SiteConfig is one catalog entry. Immutable after Load.
type SiteConfig struct {
	Name             string   `json:"-"`
	URLTemplate      string   `json:"url"`
	Method           string   `json:"method"`
	ValidStatusCodes []int    `json:"valid_status"`
	Category         string   `json:"category"`
	ConfidenceWeight *float64 `json:"confidence_weight"`

	ContentRules
}

// ProfileURL substitutes the username into the site's URL template.
func (sc SiteConfig) ProfileURL(username string) string {
	return strings.Replace(sc.URLTemplate, Placeholder, username, 1)
}

// StatusValid reports whether code is one of the site's accepted codes.
func (sc SiteConfig) StatusValid(code int) bool {
	for _, v := range sc.ValidStatusCodes {
		if v == code {
			return true
		}
	}
	return false
}

// Weight returns the site's base confidence weight with the default applied.
func (sc SiteConfig) Weight() float64 {
	if sc.ConfidenceWeight == nil {
		return DefaultConfidenceWeight
	}
	return *sc.ConfidenceWeight
}

// Catalog is the loaded, read-only site catalog.
type Catalog struct {
	Sites   map[string]SiteConfig
	Version string
}

// Load reads and validates a catalog file. Any problem here is fatal to the
// run: a scan against a broken catalog would waste hundreds of requests.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return Parse(raw)
}

// Parse decodes and validates catalog JSON.
func Parse(raw []byte) (*Catalog, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrap(err, "parse catalog json")
	}

	cat := &Catalog{Sites: make(map[string]SiteConfig, len(entries))}

	for name, msg := range entries {
		// Pseudo-entries: "$version" drives the update check,
		// "$schema" may appear in hand-edited files.
		if strings.HasPrefix(name, "$") {
			if name == "$version" {
				_ = json.Unmarshal(msg, &cat.Version)
			}
			continue
		}

		var sc SiteConfig
		if err := json.Unmarshal(msg, &sc); err != nil {
			return nil, errors.Wrapf(err, "site %q", name)
		}
		sc.Name = name

		if err := normalize(&sc); err != nil {
			return nil, errors.Wrapf(err, "site %q", name)
		}
		cat.Sites[name] = sc
	}

	if len(cat.Sites) == 0 {
		return nil, errors.New("catalog has no sites")
	}
	return cat, nil
}

// normalize applies defaults and validates one entry. Validation happens
// once here so the engine never has to defend against a bad SiteConfig.
func normalize(sc *SiteConfig) error {
	if sc.URLTemplate == "" {
		return errors.New("missing url")
	}
	if n := strings.Count(sc.URLTemplate, Placeholder); n != 1 {
		return errors.Errorf("url must contain exactly one %q placeholder, has %d", Placeholder, n)
	}

	switch strings.ToUpper(sc.Method) {
	case "":
		sc.Method = http.MethodGet
	case http.MethodGet:
		sc.Method = http.MethodGet
	case http.MethodHead:
		sc.Method = http.MethodHead
	default:
		return errors.Errorf("unsupported method %q", sc.Method)
	}

	if len(sc.ValidStatusCodes) == 0 {
		sc.ValidStatusCodes = []int{http.StatusOK}
	}
	for _, code := range sc.ValidStatusCodes {
		if code < 100 || code > 599 {
			return errors.Errorf("invalid status code %d", code)
		}
	}

	if sc.Category == "" {
		sc.Category = DefaultCategory
	}
	if sc.ConfidenceWeight != nil {
		if w := *sc.ConfidenceWeight; w < 0 || w > 1 {
			return errors.Errorf("confidence_weight %v outside [0,1]", w)
		}
	}
	if sc.MinContentLength <= 0 {
		sc.MinContentLength = DefaultMinContentLength
	}
	return nil
}

// FilterCategory returns a catalog restricted to the given categories
// (case-insensitive). An empty filter returns the catalog unchanged.
func (c *Catalog) FilterCategory(categories []string) *Catalog {
	if len(categories) == 0 {
		return c
	}
	want := make(map[string]bool, len(categories))
	for _, cat := range categories {
		want[strings.ToLower(strings.TrimSpace(cat))] = true
	}

	out := &Catalog{Sites: make(map[string]SiteConfig), Version: c.Version}
	for name, sc := range c.Sites {
		if want[strings.ToLower(sc.Category)] {
			out.Sites[name] = sc
		}
	}
	return out
}
