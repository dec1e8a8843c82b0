// Package diagnostics renders collector and runtime statistics as
// human-readable text, the way the teacher's internal/reporting package
// turns structured scan results into operator-facing output. Numeric
// formatting is delegated to github.com/dustin/go-humanize, and
// multi-line report wrapping to github.com/kr/text, matching the
// dependencies the rest of the example pack reaches for instead of
// hand-rolling width math.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kr/text"

	"asteria/internal/collector"
)

// PoolReport renders the current Variable pool size as a short
// human-readable line (§4.2). Generation thresholds are not included.
func PoolReport(g *collector.Global) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pool size: %s variables\n", humanize.Comma(int64(g.PoolSize())))
	return sb.String()
}

// Wrap re-flows a long diagnostic line (a backtrace, a describe() dump)
// to width columns with a fixed left margin, for terminal-friendly error
// reporting in the CLI.
func Wrap(s string, width int) string {
	return text.Indent(text.Wrap(s, width), "  ")
}
