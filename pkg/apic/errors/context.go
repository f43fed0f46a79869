package errors

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// ExtractContext extracts the lines surrounding location from source
// and formats them with line numbers and a column marker.
func ExtractContext(source []byte, location ast.Location, contextLines int) string {
	if !location.IsValid() || len(source) == 0 {
		return ""
	}

	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), len(source)+1)
	lines := make([]string, 0)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return ""
	}

	errorLine := location.Line - 1
	if errorLine >= len(lines) {
		return ""
	}
	startLine := max(errorLine-contextLines, 0)
	endLine := min(errorLine+contextLines, len(lines)-1)

	var sb strings.Builder
	maxLineNumWidth := len(fmt.Sprintf("%d", endLine+1))

	for i := startLine; i <= endLine; i++ {
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}
		sb.WriteString(fmt.Sprintf("%s %*d | %s\n", prefix, maxLineNumWidth, i+1, lines[i]))

		if i == errorLine && location.Column > 0 {
			padding := strings.Repeat(" ", location.Column-1)
			sb.WriteString(fmt.Sprintf("   %s | %s^\n", strings.Repeat(" ", maxLineNumWidth), padding))
		}
	}

	return sb.String()
}

// AddContextToError enriches err with two lines of source context on each side.
func AddContextToError(err *Error, source []byte) *Error {
	if err.Location.IsValid() {
		err.Context = ExtractContext(source, err.Location, 2)
	}
	return err
}
