package md

import "strings"

// SplitLines splits text into lines, each line keeping its terminating
// newline. "\r\n" and "\r" are treated as line endings and replaced with "\n".
// A final line without a line ending gets one.
func SplitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i == -1 {
			lines = append(lines, text+"\n")
			break
		}
		n := 1
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			n = 2
		}
		lines = append(lines, text[:i]+"\n")
		text = text[i+n:]
	}
	return lines
}

// Makes sure that every line ends with exactly one "\n".
func normalizeLines(lines []string) []string {
	normalized := make([]string, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		normalized[i] = line + "\n"
	}
	return normalized
}

// LineReader is a cursor over normalized lines, used by block recognizers.
type LineReader struct {
	lines  []string
	pos    int
	anchor int
	first  int
}

// NewLineReader creates a LineReader. The first line has the given 1-based
// line number.
func NewLineReader(lines []string, firstLine int) *LineReader {
	return &LineReader{lines: lines, first: firstLine}
}

// More reports whether there are unread lines.
func (r *LineReader) More() bool { return r.pos < len(r.lines) }

// Peek returns the next line without consuming it, or "" at the end.
func (r *LineReader) Peek() string {
	if r.pos < len(r.lines) {
		return r.lines[r.pos]
	}
	return ""
}

// Next consumes and returns the next line, or "" at the end.
func (r *LineReader) Next() string {
	if r.pos < len(r.lines) {
		r.pos++
		return r.lines[r.pos-1]
	}
	return ""
}

// Backup un-reads the last consumed line.
func (r *LineReader) Backup() {
	if r.pos > 0 {
		r.pos--
	}
}

// Anchor remembers the current position for Reset.
func (r *LineReader) Anchor() { r.anchor = r.pos }

// Reset rewinds to the position saved by the last call to Anchor.
func (r *LineReader) Reset() { r.pos = r.anchor }

// LineNumber returns the 1-based line number of the next line.
func (r *LineReader) LineNumber() int { return r.first + r.pos }

// Lookahead returns up to n lines starting from the next line, without
// consuming them.
func (r *LineReader) Lookahead(n int) []string {
	end := r.pos + n
	if end > len(r.lines) {
		end = len(r.lines)
	}
	return r.lines[r.pos:end]
}

// Skip consumes n lines.
func (r *LineReader) Skip(n int) {
	r.pos += n
	if r.pos > len(r.lines) {
		r.pos = len(r.lines)
	}
}

// IsBlank reports whether a line consists of whitespace only.
func IsBlank(line string) bool {
	return strings.Trim(line, " \t\r\n") == ""
}

func trimSpace(s string) string { return strings.Trim(s, " \t") }

func chomp(line string) string { return strings.TrimSuffix(line, "\n") }

// Returns the number of leading spaces.
func leadingSpaces(s string) int {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// Removes up to n leading spaces.
func stripIndent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}

// Splits off up to n leading spaces, returning the prefix and the rest.
func splitIndent(line string, n int) (string, string) {
	i := 0
	for i < n && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[:i], line[i:]
}
