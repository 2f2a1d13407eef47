package filediffs

import "strings"

// TrimIndent removes the common leading indentation from a block of text.
//
// Only non-blank lines are measured. The indent is narrowed to the shortest
// run of spaces and tabs found; a line without any indent ends the scan and
// leaves the text unindented. The indent's length, not its characters, is
// removed from every line, so mixed tabs and spaces are not reconciled.
func TrimIndent(text string) string {
	lines := splitLines(text)
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if n == 0 {
			indent = 0
			break
		}
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return text
	}
	for i, line := range lines {
		lines[i] = line[min(indent, len(line)):]
	}
	return strings.Join(lines, "\n")
}
