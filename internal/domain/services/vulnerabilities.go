package services

import (
	"sort"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// MergeIdentifiers returns base in order followed by the sorted entries of extra
// that are not already present. Duplicates inside extra collapse to one entry.
// Pure business logic - no I/O
func MergeIdentifiers(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, id := range base {
		seen[id] = true
		merged = append(merged, id)
	}

	var added []string
	for _, id := range extra {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		added = append(added, id)
	}
	sort.Strings(added)

	return append(merged, added...)
}

// ReportIdentifiers extracts the preferred identifier of every vulnerability in a report
func ReportIdentifiers(report *entities.VulnerabilityReport) []string {
	if report == nil {
		return nil
	}
	ids := make([]string, 0, len(report.Vulnerabilities))
	for _, vuln := range report.Vulnerabilities {
		ids = append(ids, vuln.PreferredID())
	}
	return ids
}

// ExcludeFixed drops identifiers listed in fixed from ids.
// Used on lookup results only; recipe lists are never filtered against each other.
func ExcludeFixed(ids, fixed []string) []string {
	drop := make(map[string]bool, len(fixed))
	for _, id := range fixed {
		drop[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
