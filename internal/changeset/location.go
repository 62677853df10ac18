package changeset

import (
	"bufio"
	"os"
	"strings"
)

// LocateOperation finds the line number of the index-th operation in a
// changeset file. It is advisory and best-effort: any failure returns
// ok=false and the caller simply omits the location.
func LocateOperation(path string, index int) (int, bool) {
	if path == "" || index < 0 {
		return 0, false
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	inOperations := false
	itemIndent := -1
	current := -1
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !inOperations {
			if trimmed == "operations:" {
				inOperations = true
			}
			continue
		}

		// A non-indented key ends the operations block.
		if trimmed != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "-") {
			break
		}
		if !strings.HasPrefix(trimmed, "- ") && trimmed != "-" {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))
		if itemIndent == -1 {
			itemIndent = indent
		}
		if indent != itemIndent {
			// Nested list inside an operation, not a new operation.
			continue
		}

		current++
		if current == index {
			return lineNo, true
		}
	}
	return 0, false
}
