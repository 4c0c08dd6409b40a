// Package report renders the maintenance report sent by mail and Telegram.
package report

import (
	"fmt"
	"time"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatDuration renders d as HH:MM:SS. Hours wrap at 24.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	seconds := total % 60
	minutes := (total / 60) % 60
	hours := (total / 3600) % 24
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatSize renders size with one decimal in the largest unit that keeps it at or below 1024.
func FormatSize(size int64) string {
	value := float64(size)
	unit := 0
	for value > 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}
