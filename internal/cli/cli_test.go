package cli

import (
	"errors"
	"io"
	"testing"
)

func TestParseUsernamesAndFlags(t *testing.T) {
	opts, usernames, err := Parse(
		[]string{"--verbose", "--category", "Tech, Social ,", "--concurrency", "4", "alice", "bob"},
		io.Discard, io.Discard,
	)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if !opts.Verbose {
		t.Error("verbose flag not set")
	}
	if opts.Concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", opts.Concurrency)
	}
	if len(opts.Categories) != 2 || opts.Categories[0] != "Tech" || opts.Categories[1] != "Social" {
		t.Errorf("unexpected categories %v", opts.Categories)
	}
	if len(usernames) != 2 || usernames[0] != "alice" || usernames[1] != "bob" {
		t.Errorf("unexpected usernames %v", usernames)
	}
}

func TestParseExplicitConfigFlag(t *testing.T) {
	opts, _, err := Parse([]string{"--config", "other.yml", "alice"}, io.Discard, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if opts.ConfigFile != "other.yml" || !opts.ConfigExplicit {
		t.Errorf("explicit --config not recorded: %+v", opts)
	}
}

func TestParseHelp(t *testing.T) {
	_, _, err := Parse([]string{"--help"}, io.Discard, io.Discard)
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
}

func TestParseDefaults(t *testing.T) {
	opts, usernames, err := Parse([]string{"alice"}, io.Discard, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if opts.ConfigFile != "config.yml" {
		t.Errorf("expected default config file, got %q", opts.ConfigFile)
	}
	if opts.ConfigExplicit {
		t.Error("default config file must not count as explicitly named")
	}
	if opts.CatalogFile != "" || opts.Concurrency != 0 {
		t.Error("unset options must stay zero so config values survive")
	}
	if len(usernames) != 1 {
		t.Errorf("unexpected usernames %v", usernames)
	}
}
