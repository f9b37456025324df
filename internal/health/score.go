// Package health computes the device health score from collected
// measurements. Collection itself is platform glue and lives outside this
// module; scoring is pure so it can run anywhere the samples do.
package health

import "fmt"

// Deduction thresholds and weights. Disk pressure weighs heaviest because
// a full system drive degrades everything else.
const (
	cpuThreshold  = 80.0
	memThreshold  = 85.0
	diskThreshold = 90.0

	cpuPenalty  = 15
	memPenalty  = 20
	diskPenalty = 25
)

// Score is the computed health summary for one sample.
type Score struct {
	Value  int      `json:"score"`
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

// Disk is one disk's fill level, identified by its mount point.
type Disk struct {
	MountPoint string
	Percent    float64
}

// Compute derives a 0-100 health score from CPU, memory and disk usage
// percentages. Each pressure source deducts a fixed penalty and records a
// user-facing issue string.
func Compute(cpuUsage, memPercent float64, disks []Disk) Score {
	value := 100
	var issues []string

	if cpuUsage > cpuThreshold {
		value -= cpuPenalty
		issues = append(issues, "CPU élevé")
	}

	if memPercent > memThreshold {
		value -= memPenalty
		issues = append(issues, "Mémoire faible")
	}

	for _, d := range disks {
		if d.Percent > diskThreshold {
			value -= diskPenalty
			issues = append(issues, fmt.Sprintf("Disque %s plein", d.MountPoint))
		}
	}

	if value < 0 {
		value = 0
	}

	return Score{Value: value, Status: statusFor(value), Issues: issues}
}

// statusFor buckets a score into the reporting status used by the backend
// and the tray UI.
func statusFor(value int) string {
	switch {
	case value >= 80:
		return "online"
	case value >= 50:
		return "warning"
	default:
		return "critical"
	}
}
