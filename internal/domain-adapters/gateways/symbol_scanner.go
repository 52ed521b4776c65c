package gateways

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultNMPath is the symbol listing tool used when none is configured
const DefaultNMPath = "nm"

// NMSymbolScanner lists archive symbols by running nm
type NMSymbolScanner struct {
	nmPath string
}

// NewNMSymbolScanner creates a scanner running nmPath (DefaultNMPath when empty)
func NewNMSymbolScanner(nmPath string) *NMSymbolScanner {
	if nmPath == "" {
		nmPath = DefaultNMPath
	}
	return &NMSymbolScanner{nmPath: nmPath}
}

// ListSymbols runs nm over archivePath and returns its non-empty output lines.
// There is no built-in timeout; pass a context with a deadline to bound it.
func (s *NMSymbolScanner) ListSymbols(ctx context.Context, archivePath string) ([]string, error) {
	//nolint:gosec // G204: nm path is operator configuration, archive path comes from the install prefix
	cmd := exec.CommandContext(ctx, s.nmPath, archivePath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s failed: %w: %s", s.nmPath, archivePath, err, strings.TrimSpace(stderr.String()))
	}

	var lines []string
	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s output: %w", s.nmPath, err)
	}
	return lines, nil
}
