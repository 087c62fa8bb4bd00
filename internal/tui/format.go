package tui

import "fmt"

// Wrap moves a selection by delta within [0, count), wrapping at both ends.
func Wrap(selected, delta, count int) int {
	if count <= 0 {
		return 0
	}
	return ((selected+delta)%count + count) % count
}

// HumanizeBytes formats a byte count into a readable string.
func HumanizeBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)
	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func barWidth(termWidth int) int {
	w := termWidth - 20
	if w > 50 {
		w = 50
	}
	if w < 10 {
		w = 10
	}
	return w
}
