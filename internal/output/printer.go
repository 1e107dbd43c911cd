package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/dedsec1121fk/footprint/internal/scan"
)

// Printer renders scan events on the terminal. Workers report
// concurrently, so every write holds the lock; the progress ticker
// repaints one line with \r and result lines clear it first.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	noColor bool
	verbose bool

	progressShown bool
}

// NewPrinter writes to the given writer. Color escapes are rendered into
// the stream itself, so tests capture exactly what a terminal would show.
func NewPrinter(stdout io.Writer, noColor, verbose bool) *Printer {
	return &Printer{out: stdout, noColor: noColor, verbose: verbose}
}

func (p *Printer) Headerf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearProgress()
	fmt.Fprintf(p.out, format, args...)
}

// Hit prints a confirmed profile.
func (p *Printer) Hit(r scan.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearProgress()

	if p.noColor {
		fmt.Fprintf(p.out, "[+] %s: %s (%.2f)\n", r.Site, r.URL, r.Confidence)
		return
	}
	fmt.Fprintf(p.out, "[%s] %s: %s (%s)\n",
		color.HiGreenString("+"),
		color.HiWhiteString(r.Site),
		r.URL,
		color.HiCyanString("%.2f", r.Confidence),
	)
}

// Unit prints verbose miss/error lines and repaints the progress line.
func (p *Printer) Unit(site string, verdict scan.Verdict, completed, total int64, rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.verbose && verdict.Kind != scan.VerdictConfirmed {
		p.clearProgress()
		switch verdict.Kind {
		case scan.VerdictRejected:
			if p.noColor {
				fmt.Fprintf(p.out, "[-] %s: %s\n", site, verdict.Reason)
			} else {
				fmt.Fprintf(p.out, "[%s] %s: %s\n",
					color.HiRedString("-"), site, color.HiYellowString(verdict.Reason.String()))
			}
		case scan.VerdictTransportFailed:
			if p.noColor {
				fmt.Fprintf(p.out, "[!] %s: unreachable\n", site)
			} else {
				fmt.Fprintf(p.out, "[%s] %s: %s\n",
					color.HiRedString("!"), site, color.HiMagentaString("unreachable"))
			}
		}
	}

	line := fmt.Sprintf("%d/%d sites | %.2f sites/s", completed, total, rate)
	if p.noColor {
		fmt.Fprintf(p.out, "\r%s", line)
	} else {
		fmt.Fprintf(p.out, "\r%s", color.HiCyanString(line))
	}
	p.progressShown = true
}

// Done finishes the progress line so following output starts clean.
func (p *Printer) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.progressShown {
		fmt.Fprintln(p.out)
		p.progressShown = false
	}
}

func (p *Printer) clearProgress() {
	if p.progressShown {
		fmt.Fprint(p.out, "\r\033[2K")
		p.progressShown = false
	}
}
