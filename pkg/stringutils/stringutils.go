package stringutils

import "strings"

// LeftJust pads s on the right with pad until it is size characters wide.
func LeftJust(s string, pad string, size int) string {
	if len(s) >= size {
		return s
	}

	return s + strings.Repeat(pad, size-len(s))
}
