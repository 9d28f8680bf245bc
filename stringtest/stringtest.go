// Package stringtest builds expected multi-line strings for tests.
package stringtest

import "strings"

// JoinLF joins lines with LF line endings.
//
// Example:
//
//	want := stringtest.JoinLF(
//		"[Events]",
//		"Dialogue: 0,...",
//	) // -> "[Events]\nDialogue: 0,..."
func JoinLF(ss ...string) string {
	return strings.Join(ss, "\n")
}

// Input dedents a raw string literal so it can be indented with the
// surrounding test code.
//
// One leading and one trailing newline are dropped, the indentation shared
// by all non-blank lines is removed, and whitespace-only lines become empty.
func Input(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")

	lines := strings.Split(s, "\n")

	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}

		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}

	for i, l := range lines {
		switch {
		case strings.TrimSpace(l) == "":
			lines[i] = ""
		case indent > 0:
			lines[i] = l[indent:]
		}
	}

	return strings.Join(lines, "\n")
}
