package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders the planloom banner to w.
func PrintBanner(w io.Writer) {
	frame := color.New(color.FgCyan)
	bars := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	bars.Fprintln(w, "   |  ====                    |")
	bars.Fprintln(w, "   |      ========            |")
	brand.Fprintln(w, "   |  P L A N L O O M         |")
	bars.Fprintln(w, "   |              ======      |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Critical path scheduling\n", Dim("📅"))
	fmt.Fprintln(w)
}

// idColors is a palette of distinct bold colors for differentiating ids.
var idColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// idColorIndex hashes an id to a palette index.
func idColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(idColors)))
}

// Prefix returns a colored [id] prefix string.
// The same id always gets the same color.
func Prefix(id string) string {
	c := idColors[idColorIndex(id)]
	return Dim("[") + c(id) + Dim("]")
}

// StatusIcon returns a colored task status icon for compact table display.
func StatusIcon(status string) string {
	switch status {
	case "completed":
		return Green("✓")
	case "in_progress":
		return Cyan("●")
	case "blocked":
		return Red("⊘")
	default:
		return Dim("◌")
	}
}

// CriticalMark returns the critical path marker, or a blank of equal width.
func CriticalMark(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// ConflictLabel returns a colored conflict type.
func ConflictLabel(kind string) string {
	switch kind {
	case "overallocation":
		return BoldYellow("overallocation")
	case "unavailable":
		return BoldRed("unavailable")
	default:
		return Dim(kind)
	}
}

// Slack colors a slack value: red when critical, yellow when tight, dim otherwise.
func Slack(days int) string {
	s := fmt.Sprintf("%dd", days)
	switch {
	case days <= 0:
		return Red(s)
	case days <= 2:
		return Yellow(s)
	default:
		return Dim(s)
	}
}

// ProgressBar renders pct (0-100) as a bar of the given width.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(pct/100*float64(width) + 0.5)
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if pct >= 100 {
		return Green(bar)
	}
	return Cyan(bar)
}
