package shoutcast

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformedPointer is returned for a File line that has no '=' separator.
var ErrMalformedPointer = errors.New("malformed pointer file entry")

// ParsePLS returns the stream URL of every FileN= line of a PLS pointer file
// in the order they appear. All other lines are ignored. The URL is the raw
// text after the first '=' on the line.
func ParsePLS(content string) ([]string, error) {
	var urls []string

	for i, line := range splitLines(content) {
		if !strings.HasPrefix(line, "File") {
			continue
		}

		_, url, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d %q: %w", i+1, line, ErrMalformedPointer)
		}

		urls = append(urls, url)
	}

	return urls, nil
}

// splitLines splits on the same boundaries as Python's str.splitlines:
// \n, \r\n, \r, \v, \f, \x1c-\x1e, U+0085, U+2028 and U+2029.
func splitLines(s string) []string {
	var lines []string

	start := 0
	for i, r := range s {
		if i < start || !isLineBreak(r) {
			continue
		}

		lines = append(lines, s[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && strings.HasPrefix(s[start:], "\n") {
			start++
		}
	}

	return append(lines, s[start:])
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
