package bed

import "strings"

// tokenize splits a line into columns. Tab-delimited lines keep empty
// columns so that a stray tab surfaces as a malformed record; lines without
// tabs are split on runs of whitespace.
func tokenize(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	if !strings.Contains(line, "\t") {
		return strings.Fields(line)
	}
	tokens := strings.Split(line, "\t")
	for i, t := range tokens {
		tokens[i] = strings.TrimSpace(t)
	}
	return tokens
}

// isRecordLine returns false for lines that never hold a feature.
func isRecordLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	return !(strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "track") ||
		strings.HasPrefix(trimmed, "browser"))
}
