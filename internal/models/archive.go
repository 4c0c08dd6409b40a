package models

import (
	"path/filepath"
	"sort"
	"time"
)

// BackupRecord represents one archive file on durable storage.
type BackupRecord struct {
	DatabaseName string
	Day          time.Time
	ArchivePath  string
	ModTime      time.Time
	Size         int64
}

// FileName returns the base name of the archive.
func (r BackupRecord) FileName() string {
	return filepath.Base(r.ArchivePath)
}

// Extension returns the archive extension including the leading dot.
func (r BackupRecord) Extension() string {
	return filepath.Ext(r.ArchivePath)
}

// Dir returns the directory holding the archive.
func (r BackupRecord) Dir() string {
	return filepath.Dir(r.ArchivePath)
}

// PathWithoutExtension returns the path of the decompressed form of the archive.
func (r BackupRecord) PathWithoutExtension() string {
	return r.ArchivePath[:len(r.ArchivePath)-len(r.Extension())]
}

// String returns the database name.
func (r BackupRecord) String() string {
	return r.DatabaseName
}

// SortRecords orders records by archive path.
func SortRecords(records []BackupRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ArchivePath < records[j].ArchivePath
	})
}

// Target is a database an operation applies to. Record is set when the
// target was resolved from the archive index.
type Target struct {
	Name   string
	Record *BackupRecord
}

// Names returns the database names of the targets in order.
func Names(targets []Target) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	return names
}
