package cache

import (
	"fmt"
	"strings"
)

// Key joins prefix and parts with ":", e.g. Key("books_page", 1, 10) is "books_page:1:10".
func Key(prefix string, parts ...any) string {
	if len(parts) == 0 {
		return prefix
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, p := range parts {
		sb.WriteByte(':')
		sb.WriteString(fmt.Sprint(p))
	}

	return sb.String()
}
