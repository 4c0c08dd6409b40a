package naming

import (
	"fmt"
	"strings"
	"time"
)

// Namer derives archive file names from a database name and a calendar day.
type Namer struct {
	format *DateFormat
	ext    string
	loc    *time.Location
}

// NewNamer creates a Namer for the given date format and archive extension.
func NewNamer(format *DateFormat, ext string) *Namer {
	return &Namer{
		format: format,
		ext:    strings.TrimPrefix(ext, "."),
		loc:    time.Local,
	}
}

// Format returns the date format in use.
func (n *Namer) Format() *DateFormat { return n.format }

// Extension returns the archive extension without the leading dot.
func (n *Namer) Extension() string { return n.ext }

// ValidateDatabaseName checks that name can be embedded in an archive name.
func ValidateDatabaseName(name string) error {
	if name == "" {
		return fmt.Errorf("database name is empty")
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("database name %q contains a path separator", name)
	}
	return nil
}

// BaseName returns <day>-<db>, the uncompressed dump name.
func (n *Namer) BaseName(day time.Time, db string) string {
	return n.format.Format(day) + "-" + db
}

// TempName returns <day>-<db>.tmp, the name a dump is written to first.
func (n *Namer) TempName(day time.Time, db string) string {
	return n.BaseName(day, db) + "." + TempExtension
}

// ArchiveName returns <day>-<db>.<ext>.
func (n *Namer) ArchiveName(day time.Time, db string) string {
	return n.BaseName(day, db) + "." + n.ext
}

// Parse splits an archive file name into database name and day.
func (n *Namer) Parse(fileName string) (string, time.Time, bool) {
	w := n.format.Width()
	if len(fileName) <= w+1 || fileName[w] != '-' {
		return "", time.Time{}, false
	}

	day, err := n.format.Parse(fileName[:w], n.loc)
	if err != nil {
		return "", time.Time{}, false
	}

	db, ok := n.trimExtension(fileName[w+1:])
	if !ok {
		return "", time.Time{}, false
	}
	return db, day, true
}

// ParseForDay returns the database name if fileName is an archive of day.
func (n *Namer) ParseForDay(fileName string, day time.Time) (string, bool) {
	prefix := n.format.Format(day) + "-"
	if !strings.HasPrefix(fileName, prefix) {
		return "", false
	}
	return n.trimExtension(fileName[len(prefix):])
}

func (n *Namer) trimExtension(rest string) (string, bool) {
	suffix := "." + n.ext
	if !strings.HasSuffix(rest, suffix) {
		return "", false
	}
	db := strings.TrimSuffix(rest, suffix)
	if ValidateDatabaseName(db) != nil {
		return "", false
	}
	return db, true
}
