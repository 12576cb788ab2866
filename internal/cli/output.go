package cli

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorGray    = "\033[90m"
)

// Output destinations, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Output formatting helpers

// printInfo prints an informational message
func printInfo(msg string) {
	if globalQuiet {
		return
	}
	fmt.Fprintln(stdout, msg)
}

// printSuccess prints a success message
func printSuccess(msg string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "✓ %s\n", msg)
	} else {
		fmt.Fprintf(stdout, "%s✓%s %s\n", colorGreen, colorReset, msg)
	}
}

// printWarning prints a warning message
func printWarning(msg string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "⚠ %s\n", msg)
	} else {
		fmt.Fprintf(stdout, "%s⚠%s %s\n", colorYellow, colorReset, msg)
	}
}

// printErrorMsg prints an error message (different from printError which takes error type).
// Like printError it ignores --quiet, so per-item failures stay visible.
func printErrorMsg(msg string) {
	if globalNoColor {
		fmt.Fprintf(stderr, "✗ %s\n", msg)
	} else {
		fmt.Fprintf(stderr, "%s✗%s %s\n", colorRed, colorReset, msg)
	}
}

// printProgress prints a progress indicator
func printProgress(msg string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "→ %s\n", msg)
	} else {
		fmt.Fprintf(stdout, "%s→%s %s\n", colorBlue, colorReset, msg)
	}
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// printHeader prints a section header
func printHeader(title string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "\n=== %s ===\n", title)
	} else {
		fmt.Fprintf(stdout, "\n%s=== %s ===%s\n", colorMagenta, title, colorReset)
	}
}

// printSeparator prints a separator line
func printSeparator() {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintln(stdout, "────────────────────────────────────────")
	} else {
		fmt.Fprintf(stdout, "%s────────────────────────────────────────%s\n", colorGray, colorReset)
	}
}
