package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewOSVGateway(t *testing.T) {
	gateway := NewOSVGateway()
	if gateway.apiURL != DefaultOSVEndpoint {
		t.Errorf("API URL = %s, want %s", gateway.apiURL, DefaultOSVEndpoint)
	}
}

func TestOSVGateway_QueryVulnerabilities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}

		var query OSVQueryRequest
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			t.Errorf("failed to decode query: %v", err)
		}
		want := OSVQueryRequest{
			Package: OSVPackage{Name: "openssl", Ecosystem: "OSS-Fuzz"},
			Version: "1.1.1w",
		}
		if diff := cmp.Diff(want, query); diff != "" {
			t.Errorf("query mismatch (-want +got):\n%s", diff)
		}

		_ = json.NewEncoder(w).Encode(OSVQueryResponse{
			Vulns: []OSVVulnerability{
				{ID: "OSV-2023-1", Aliases: []string{"CVE-2023-0286"}, Summary: "X.400 type confusion"},
				{ID: "OSV-2023-2", Summary: "Timing oracle"},
			},
		})
	}))
	defer server.Close()

	gateway := NewOSVGateway()
	gateway.apiURL = server.URL

	report, err := gateway.QueryVulnerabilities(context.Background(), "OSS-Fuzz", "openssl", "1.1.1w")
	if err != nil {
		t.Fatalf("QueryVulnerabilities() error = %v", err)
	}

	if len(report.Vulnerabilities) != 2 {
		t.Fatalf("got %d vulnerabilities, want 2", len(report.Vulnerabilities))
	}
	first := report.Vulnerabilities[0]
	if first.PreferredID() != "CVE-2023-0286" {
		t.Errorf("PreferredID() = %s, want CVE-2023-0286", first.PreferredID())
	}
	if first.Component != "openssl@1.1.1w" {
		t.Errorf("Component = %s", first.Component)
	}
	if report.Vulnerabilities[1].PreferredID() != "OSV-2023-2" {
		t.Errorf("PreferredID() without aliases = %s", report.Vulnerabilities[1].PreferredID())
	}
	if report.Scanner == "" || report.ScanDate == "" {
		t.Error("report metadata not filled")
	}
}

func TestOSVGateway_QueryVulnerabilities_None(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gateway := NewOSVGateway()
	gateway.apiURL = server.URL

	report, err := gateway.QueryVulnerabilities(context.Background(), "OSS-Fuzz", "libressl", "3.9.2")
	if err != nil {
		t.Fatalf("QueryVulnerabilities() error = %v", err)
	}
	if len(report.Vulnerabilities) != 0 {
		t.Errorf("got %d vulnerabilities, want 0", len(report.Vulnerabilities))
	}
}

func TestOSVGateway_QueryVulnerabilities_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			gateway := NewOSVGateway()
			gateway.apiURL = server.URL
			if _, err := gateway.QueryVulnerabilities(context.Background(), "OSS-Fuzz", "openssl", "3.0.0"); err == nil {
				t.Error("QueryVulnerabilities() expected error")
			}
		})
	}
}

func TestOSVGateway_QueryVulnerabilities_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gateway := NewOSVGateway()
	gateway.apiURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gateway.QueryVulnerabilities(ctx, "OSS-Fuzz", "openssl", "3.0.0"); err == nil {
		t.Error("QueryVulnerabilities() expected error for canceled context")
	}
}
