package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// DefaultOSVEndpoint is the OSV query API
const DefaultOSVEndpoint = "https://api.osv.dev/v1/query"

// osvGateway looks up published vulnerabilities through the OSV HTTP API
type osvGateway struct {
	apiURL     string
	httpClient *http.Client
}

// NewOSVGateway creates a new OSV gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewOSVGateway() *osvGateway {
	return &osvGateway{
		apiURL: DefaultOSVEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// QueryVulnerabilities returns the OSV entries affecting pkg at version in ecosystem
func (g *osvGateway) QueryVulnerabilities(ctx context.Context, ecosystem, pkg, version string) (*entities.VulnerabilityReport, error) {
	payload := OSVQueryRequest{
		Package: OSVPackage{
			Name:      pkg,
			Ecosystem: ecosystem,
		},
		Version: version,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSV API request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSV API returned HTTP %d", resp.StatusCode)
	}

	var osvResp OSVQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&osvResp); err != nil {
		return nil, fmt.Errorf("failed to parse OSV response: %w", err)
	}

	vulnerabilities := make([]entities.Vulnerability, 0, len(osvResp.Vulns))
	for _, vuln := range osvResp.Vulns {
		vulnerabilities = append(vulnerabilities, entities.Vulnerability{
			ID:          vuln.ID,
			Aliases:     vuln.Aliases,
			Description: vuln.Summary,
			Component:   pkg + "@" + version,
		})
	}

	return &entities.VulnerabilityReport{
		Vulnerabilities: vulnerabilities,
		ScanDate:        time.Now().UTC().Format(time.RFC3339),
		Scanner:         "OSV API v1",
	}, nil
}

// OSV API request/response types

// OSVQueryRequest represents a query to the OSV API for vulnerability information.
type OSVQueryRequest struct {
	Package OSVPackage `json:"package"`
	Version string     `json:"version"`
}

// OSVPackage identifies a software package in a specific ecosystem.
type OSVPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

// OSVQueryResponse contains the vulnerability results from the OSV API.
type OSVQueryResponse struct {
	Vulns []OSVVulnerability `json:"vulns"`
}

// OSVVulnerability represents a single vulnerability from the OSV database.
type OSVVulnerability struct {
	ID      string   `json:"id"`
	Aliases []string `json:"aliases,omitempty"`
	Summary string   `json:"summary"`
	Details string   `json:"details"`
}
