package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"

	"github.com/dedsec1121fk/footprint/internal/catalog"
	"github.com/dedsec1121fk/footprint/internal/cli"
	"github.com/dedsec1121fk/footprint/internal/httpx"
	"github.com/dedsec1121fk/footprint/internal/output"
	"github.com/dedsec1121fk/footprint/internal/scan"
	"github.com/dedsec1121fk/footprint/internal/store"
)

// Exit codes: 0 ok, 1 fatal error, 2 usage, 130 interrupted.
const exitInterrupted = 130

func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "Footprint - find a username across the web.")

	opts, usernames, err := cli.Parse(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	color.NoColor = opts.NoColor

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := LoadConfig(opts.ConfigFile, opts.ConfigExplicit)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	applyOverrides(&cfg, opts)
	if opts.Verbose {
		pp.Fprintln(stderr, cfg)
	}

	socksAddr := ""
	if !opts.NoSocks && httpx.SocksAvailable(cfg.SocksAddr) {
		socksAddr = cfg.SocksAddr
		log.WithField("proxy", socksAddr).Info("routing through local SOCKS proxy")
	}

	client, err := httpx.NewClient(httpx.ClientConfig{
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		SocksAddr: socksAddr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize HTTP client: %v\n", err)
		return 1
	}

	if opts.Update {
		replaced, err := catalog.UpdateFromRemote(ctx, client, cfg.UserAgent, catalog.RemoteURL, cfg.Catalog)
		switch {
		case err != nil:
			log.WithError(err).Warn("catalog update failed, using local catalog")
		case replaced:
			log.Info("catalog updated")
		default:
			log.Info("catalog already up to date")
		}
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		fmt.Fprintf(stderr, "catalog error: %v\n", err)
		return 1
	}
	cat = cat.FilterCategory(opts.Categories)
	if len(cat.Sites) == 0 {
		fmt.Fprintln(stderr, "catalog error: no sites match the category filter")
		return 1
	}

	fpCache := store.LoadFPCache(cfg.Cache, log)

	if len(usernames) == 0 {
		usernames = promptUsernames(stdout, os.Stdin)
		if len(usernames) == 0 {
			fmt.Fprintln(stderr, "no usernames provided")
			return 2
		}
	}

	scanner := scan.NewScanner(client, scan.Config{
		Concurrency:  cfg.Concurrency,
		UserAgent:    cfg.UserAgent,
		BaseDelay:    time.Duration(cfg.BaseDelayMS) * time.Millisecond,
		Jitter:       time.Duration(cfg.JitterMS) * time.Millisecond,
		MaxBodyBytes: int64(cfg.MaxBodyKB) << 10,
	}, fpCache)

	printer := output.NewPrinter(stdout, opts.NoColor, opts.Verbose)

	code := 0
	for _, username := range usernames {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}

		results, err := scanUser(ctx, scanner, cat, username, cfg, socksAddr != "", printer, log)
		if err != nil {
			fmt.Fprintf(stderr, "scan error for %q: %v\n", username, err)
			code = 1
			continue
		}

		printer.Headerf("\nFound %d confirmed profiles for %s across %d sites probed.\n",
			len(results), username, len(cat.Sites))

		if ctx.Err() != nil {
			break
		}
	}

	// Always flush the rejection history, interrupted or not.
	if err := fpCache.Save(); err != nil {
		log.WithError(err).Warn("failed to persist false-positive cache")
	}

	if ctx.Err() != nil {
		fmt.Fprintln(stdout, "\nInterrupted; partial results and caches were saved.")
		return exitInterrupted
	}
	return code
}

func scanUser(
	ctx context.Context,
	scanner *scan.Scanner,
	cat *catalog.Catalog,
	username string,
	cfg Config,
	proxied bool,
	printer *output.Printer,
	log *logrus.Logger,
) ([]scan.Result, error) {
	resultStore, err := store.NewResultStore(cfg.ResultsDir, username, proxied, log)
	if err != nil {
		return nil, err
	}

	printer.Headerf("\nScanning %d sites for %s (Ctrl+C to stop safely):\n", len(cat.Sites), username)

	progress := scan.NewProgress(len(cat.Sites))
	results := scanner.Run(ctx, username, cat, progress,
		func(r scan.Result) {
			// Persist first: a hit on disk survives whatever happens next.
			resultStore.Append(r)
			printer.Hit(r)
		},
		func(site string, verdict scan.Verdict, completed, total int64) {
			printer.Unit(site, verdict, completed, total, progress.Rate())
		},
	)
	printer.Done()

	resultStore.Flush()
	log.WithFields(logrus.Fields{
		"username":  username,
		"confirmed": len(results),
		"probed":    progress.Completed(),
		"transport": progress.TransportFailures(),
	}).Debug("scan finished")

	return results, nil
}

func applyOverrides(cfg *Config, opts cli.Options) {
	if opts.CatalogFile != "" {
		cfg.Catalog = opts.CatalogFile
	}
	if opts.CacheFile != "" {
		cfg.Cache = opts.CacheFile
	}
	if opts.ResultsDir != "" {
		cfg.ResultsDir = opts.ResultsDir
	}
	if opts.Timeout > 0 {
		cfg.TimeoutSeconds = opts.Timeout
	}
	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = httpx.DefaultUserAgent
	}
}

func promptUsernames(stdout io.Writer, stdin io.Reader) []string {
	fmt.Fprint(stdout, "Enter usernames to scan separated by a space: ")
	r := bufio.NewReader(stdin)
	line, _ := r.ReadString('\n')
	return strings.Fields(strings.TrimSpace(line))
}
