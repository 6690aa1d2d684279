package monitor

import (
	"context"
	"log/slog"
	"time"
)

// ComponentCheck probes one external dependency without running the
// pipeline. Used by test mode to verify credentials before the first
// scheduled run.
type ComponentCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type CheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type CheckReport struct {
	CheckedAt time.Time     `json:"checked_at"`
	Results   []CheckResult `json:"results"`
	AllPassed bool          `json:"all_passed"`
}

// SelfCheck runs every probe, continuing past failures so the report shows
// all broken components at once.
func SelfCheck(ctx context.Context, checks []ComponentCheck) CheckReport {
	report := CheckReport{CheckedAt: time.Now().UTC(), AllPassed: true}
	for _, c := range checks {
		result := CheckResult{Name: c.Name, OK: true}
		if err := c.Check(ctx); err != nil {
			slog.ErrorContext(ctx, "component check failed", "component", c.Name, "error", err)
			result.OK = false
			result.Error = err.Error()
			report.AllPassed = false
		} else {
			slog.InfoContext(ctx, "component check passed", "component", c.Name)
		}
		report.Results = append(report.Results, result)
	}
	return report
}
