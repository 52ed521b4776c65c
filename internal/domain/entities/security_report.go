package entities

// VulnerabilityReport represents the result of a vulnerability lookup for a library version
type VulnerabilityReport struct {
	Vulnerabilities []Vulnerability
	ScanDate        string
	Scanner         string
}

// Vulnerability represents a single vulnerability record
type Vulnerability struct {
	ID          string
	Aliases     []string // e.g. CVE identifiers for an OSV record
	Description string
	Component   string
}

// PreferredID returns the first CVE alias when present, otherwise the record ID
func (v Vulnerability) PreferredID() string {
	for _, alias := range v.Aliases {
		if len(alias) > 4 && alias[:4] == "CVE-" {
			return alias
		}
	}
	return v.ID
}
