package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const replayFixture = `
entries:
  - url: https://secure.example
    status: 200
    headers:
      Strict-Transport-Security: "max-age=31536000; includeSubDomains; preload"
      X-Frame-Options: DENY
      X-Content-Type-Options: nosniff
      Content-Security-Policy: "default-src 'self'; script-src 'self'; style-src 'self'; report-uri /csp"
      Referrer-Policy: no-referrer
      Permissions-Policy: "geolocation=(), camera=(), microphone=(), payment=()"
  - url: https://weak.example
    status: 200
    headers:
      Server: nginx/1.18
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// executeCommand runs a fresh command tree with an isolated HOME.
func executeCommand(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
