package reporter

import (
	"io"
	"os"

	"github.com/akraskov/safemig/internal/rules"
)

// ANSI escape codes for severity colors.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

var severityColor = map[rules.Severity]string{
	rules.SeverityError:   colorRed,
	rules.SeverityWarning: colorYellow,
	rules.SeverityInfo:    colorCyan,
}

// isTTY returns true if the writer is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
