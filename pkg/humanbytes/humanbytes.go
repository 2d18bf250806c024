// Package humanbytes formats byte counts for log lines, the way
// blkdev.py's HumanBytes.format helper does for the device-open log
// message ("size=...").
package humanbytes

import "fmt"

var binaryUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

var metricUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// Format renders n bytes as a short human-readable string. When metric is
// false it divides by 1024 and uses the KiB/MiB/... suffixes; when true it
// divides by 1000 and uses KB/MB/....
func Format(n uint64, metric bool) string {
	base := uint64(1024)
	units := binaryUnits
	if metric {
		base = 1000
		units = metricUnits
	}

	if n < base {
		return fmt.Sprintf("%d%s", n, units[0])
	}

	div, exp := base, 0
	for v := n / base; v >= base && exp < len(units)-2; v /= base {
		div *= base
		exp++
	}
	return fmt.Sprintf("%.1f%s", float64(n)/float64(div), units[exp+1])
}
