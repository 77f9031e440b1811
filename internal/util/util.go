// Package util provides string helpers for command script input.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields splits a script line on whitespace. A double-quoted field may hold
// spaces; a doubled quote inside it stands for one quote character.
func Fields(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote && c == '"' && i+1 < len(line) && line[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (c == ' ' || c == '\t'):
			if started {
				fields = append(fields, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteByte(c)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if started {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

// ParseIntFromFloat parses a string that may be an integer ("3") or an
// integral float ("3.00") into an int.
func ParseIntFromFloat(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int", s)
	}
	return int(f), nil
}
