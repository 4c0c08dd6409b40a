// Package naming builds and parses the date-stamped archive file names.
//
// An archive is named <day>-<database>.<ext>, where <day> is rendered with a
// strftime style date format (default %Y-%m-%d). Only fixed-width date
// directives are accepted so the day token can be split off a file name
// without knowing the database name in advance.
package naming

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateFormat is the date format used when none is configured.
const DefaultDateFormat = "%Y-%m-%d"

// DefaultExtension is the extension produced by the default compressor.
const DefaultExtension = "bz2"

// TempExtension marks a dump that has not been compressed yet.
const TempExtension = "tmp"

var directives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'j': "002",
	'b': "Jan",
	'h': "Jan",
	'a': "Mon",
}

// DateFormat is a parsed strftime style date format.
type DateFormat struct {
	pattern string
	layout  string
	width   int
}

// ParseDateFormat converts a strftime pattern into a DateFormat.
func ParseDateFormat(pattern string) (*DateFormat, error) {
	if pattern == "" {
		return nil, fmt.Errorf("date format is empty")
	}

	var b strings.Builder
	seen := map[byte]bool{}
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			if isAlnum(c) {
				return nil, fmt.Errorf("date format %q: literal %q is not allowed, only separators", pattern, c)
			}
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(pattern) {
			return nil, fmt.Errorf("date format %q: dangling %%", pattern)
		}
		i++
		if pattern[i] == '%' {
			b.WriteByte('%')
			continue
		}
		layout, ok := directives[pattern[i]]
		if !ok {
			return nil, fmt.Errorf("date format %q: unsupported directive %%%c", pattern, pattern[i])
		}
		seen[pattern[i]] = true
		b.WriteString(layout)
	}

	hasYear := seen['Y'] || seen['y']
	hasDay := seen['j'] || ((seen['m'] || seen['b'] || seen['h']) && (seen['d'] || seen['e']))
	if !hasYear || !hasDay {
		return nil, fmt.Errorf("date format %q does not identify a calendar day", pattern)
	}

	f := &DateFormat{pattern: pattern, layout: b.String()}
	f.width = len(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).Format(f.layout))
	return f, nil
}

// MustDateFormat is like ParseDateFormat but panics on error.
func MustDateFormat(pattern string) *DateFormat {
	f, err := ParseDateFormat(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

// Pattern returns the strftime pattern.
func (f *DateFormat) Pattern() string { return f.pattern }

// Width returns the length of every rendered day token.
func (f *DateFormat) Width() int { return f.width }

// Format renders the calendar day of t.
func (f *DateFormat) Format(t time.Time) string {
	return t.Format(f.layout)
}

// Parse reads a rendered day token back into midnight of that day in loc.
func (f *DateFormat) Parse(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(f.layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q with format %q: %w", s, f.pattern, err)
	}
	return t, nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Day truncates t to midnight of its calendar day in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
