package catalog

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cat, err := Parse([]byte(`{"GitHub": {"url": "https://github.com/{}"}}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	sc, ok := cat.Sites["GitHub"]
	if !ok {
		t.Fatal("GitHub missing from catalog")
	}
	if sc.Method != http.MethodGet {
		t.Errorf("expected default method GET, got %q", sc.Method)
	}
	if !sc.StatusValid(200) || sc.StatusValid(404) {
		t.Errorf("expected default valid status {200}, got %v", sc.ValidStatusCodes)
	}
	if sc.Category != DefaultCategory {
		t.Errorf("expected default category, got %q", sc.Category)
	}
	if sc.Weight() != DefaultConfidenceWeight {
		t.Errorf("expected default weight, got %v", sc.Weight())
	}
	if sc.MinContentLength != DefaultMinContentLength {
		t.Errorf("expected default min length, got %d", sc.MinContentLength)
	}
}

func TestParseVersionEntrySkipped(t *testing.T) {
	cat, err := Parse([]byte(`{"$version": "2.1.0", "$schema": "ignored", "A": {"url": "https://a/{}"}}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cat.Version != "2.1.0" {
		t.Errorf("expected version 2.1.0, got %q", cat.Version)
	}
	if len(cat.Sites) != 1 {
		t.Errorf("pseudo-entries leaked into sites: %v", cat.Sites)
	}
}

func TestParseRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"not json", `nope`},
		{"missing url", `{"A": {"method": "GET"}}`},
		{"no placeholder", `{"A": {"url": "https://a/fixed"}}`},
		{"two placeholders", `{"A": {"url": "https://a/{}/{}"}}`},
		{"bad method", `{"A": {"url": "https://a/{}", "method": "POST"}}`},
		{"bad status", `{"A": {"url": "https://a/{}", "valid_status": [9000]}}`},
		{"weight too high", `{"A": {"url": "https://a/{}", "confidence_weight": 1.5}}`},
		{"weight negative", `{"A": {"url": "https://a/{}", "confidence_weight": -0.1}}`},
	}

	for _, tc := range cases {
		if _, err := Parse([]byte(tc.raw)); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}

func TestParseHeadMethodNormalized(t *testing.T) {
	cat, err := Parse([]byte(`{"A": {"url": "https://a/{}", "method": "head"}}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := cat.Sites["A"].Method; got != http.MethodHead {
		t.Errorf("expected HEAD, got %q", got)
	}
}

func TestProfileURL(t *testing.T) {
	sc := SiteConfig{URLTemplate: "https://example.test/users/{}/profile"}
	if got := sc.ProfileURL("alice"); got != "https://example.test/users/alice/profile" {
		t.Errorf("unexpected profile url %q", got)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "websites.json")
	raw := `{
		"GitHub": {"url": "https://github.com/{}", "category": "Tech", "confidence_weight": 0.9,
			"must_not_contain": ["Not Found"], "min_content_length": 300},
		"Gravatar": {"url": "https://gravatar.com/{}", "method": "HEAD", "category": "Personal"}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cat.Sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(cat.Sites))
	}

	gh := cat.Sites["GitHub"]
	if gh.Weight() != 0.9 || gh.MinContentLength != 300 || len(gh.MustNotContain) != 1 {
		t.Errorf("GitHub fields not honored: %+v", gh)
	}
}

func TestFilterCategory(t *testing.T) {
	cat, err := Parse([]byte(`{
		"A": {"url": "https://a/{}", "category": "Tech"},
		"B": {"url": "https://b/{}", "category": "Social"},
		"C": {"url": "https://c/{}", "category": "tech"}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	filtered := cat.FilterCategory([]string{"Tech"})
	if len(filtered.Sites) != 2 {
		t.Fatalf("expected case-insensitive match of 2 sites, got %d", len(filtered.Sites))
	}

	if got := cat.FilterCategory(nil); len(got.Sites) != 3 {
		t.Fatalf("empty filter must keep all sites, got %d", len(got.Sites))
	}
}

func TestShippedCatalogParses(t *testing.T) {
	cat, err := Load("../../websites.json")
	if err != nil {
		t.Fatalf("shipped catalog invalid: %v", err)
	}
	if len(cat.Sites) < 20 {
		t.Errorf("shipped catalog suspiciously small: %d sites", len(cat.Sites))
	}
	if cat.Version == "" {
		t.Error("shipped catalog has no $version")
	}
}
