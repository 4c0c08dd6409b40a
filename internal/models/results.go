package models

import "time"

// Actions understood by the maintenance session.
const (
	ActionBackup   = "backup"
	ActionRestore  = "restore"
	ActionOptimize = "optimize"
	ActionCleanup  = "cleanup"
	ActionList     = "list"
)

// ItemResult holds the outcome for a single database in a batch.
type ItemResult struct {
	Database string
	Path     string
	Duration time.Duration
	Error    error
}

// BatchResult holds the aggregate outcome of a backup or restore batch.
type BatchResult struct {
	Action   string
	Total    int
	Failed   int
	Message  string
	Items    []ItemResult
	Duration time.Duration
}

// Succeeded returns the number of databases processed without error.
func (r *BatchResult) Succeeded() int {
	return r.Total - r.Failed
}

// RetentionResult holds what the retention policy found and removed.
type RetentionResult struct {
	RetentionDays int
	Cutoff        time.Time
	Forced        bool
	Expired       []string
	Deleted       []string
}

// Report collects everything a maintenance session produced.
type Report struct {
	RunID         string
	Action        string
	Host          string
	StartTime     time.Time
	Duration      time.Duration
	RetentionDays int
	Optimize      bool
	Selection     string

	Batch      *BatchResult
	Retention  *RetentionResult
	Check      *CheckResult
	BackupSize int64
	Listed     []string
	ListTitle  string

	Error      error
	FailedStep string
}

// Success reports whether the session finished without fatal or per-item errors.
func (r *Report) Success() bool {
	if r.Error != nil {
		return false
	}
	if r.Batch != nil && r.Batch.Failed > 0 {
		return false
	}
	return true
}
