package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

var ErrHelp = errors.New("help requested")

type Options struct {
	NoColor bool
	Verbose bool
	Update  bool
	NoSocks bool

	ConfigFile string
	// ConfigExplicit is set when --config was passed, as opposed to the
	// flag's default; a named config file that is missing is an error.
	ConfigExplicit bool

	CatalogFile string
	CacheFile   string
	ResultsDir  string
	Categories  []string

	Timeout     int
	Concurrency int
}

const usageText = `
usage:
  footprint [flags] USERNAME [USERNAMES...]

positional arguments:
  USERNAMES             one or more usernames to scan; prompts when omitted

flags:
  -h, --help            show this help message and exit
  --no-color            disable colored stdout output
  -v, --verbose         also print misses, errors and the effective config
  --update              update the site catalog before the run
  --no-socks            never route through a local SOCKS proxy

options:
  --config PATH         engine config file (default: config.yml)
  --catalog PATH        site catalog (default: websites.json)
  --cache PATH          false-positive cache (default: fp_cache.json)
  --results DIR         output directory (default: results)
  --category C1,C2,...  restrict the scan to these catalog categories
  --timeout SECONDS     HTTP request timeout
  --concurrency N       max concurrent probes
`

func Parse(args []string, stdout, stderr io.Writer) (Options, []string, error) {
	var opts Options
	var (
		help        bool
		categoryCSV string
	)

	fs := flag.NewFlagSet("footprint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stdout, usageText)
	}

	fs.BoolVar(&help, "h", false, "show help")
	fs.BoolVar(&help, "help", false, "show help")

	fs.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&opts.Verbose, "v", false, "verbose output")
	fs.BoolVar(&opts.Verbose, "verbose", false, "verbose output")
	fs.BoolVar(&opts.Update, "update", false, "update catalog before run")
	fs.BoolVar(&opts.NoSocks, "no-socks", false, "disable SOCKS proxy autodetection")

	fs.StringVar(&opts.ConfigFile, "config", "config.yml", "engine config file")
	fs.StringVar(&opts.CatalogFile, "catalog", "", "site catalog path")
	fs.StringVar(&opts.CacheFile, "cache", "", "false-positive cache path")
	fs.StringVar(&opts.ResultsDir, "results", "", "results output directory")
	fs.StringVar(&categoryCSV, "category", "", "comma-separated category list")
	fs.IntVar(&opts.Timeout, "timeout", 0, "request timeout in seconds")
	fs.IntVar(&opts.Concurrency, "concurrency", 0, "max concurrent probes")

	if err := fs.Parse(args); err != nil {
		return Options{}, nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.ConfigExplicit = true
		}
	})
	if help {
		fs.Usage()
		return Options{}, nil, ErrHelp
	}

	if categoryCSV != "" {
		raw := strings.Split(categoryCSV, ",")
		opts.Categories = make([]string, 0, len(raw))
		for _, c := range raw {
			c = strings.TrimSpace(c)
			if c != "" {
				opts.Categories = append(opts.Categories, c)
			}
		}
	}

	return opts, fs.Args(), nil
}
