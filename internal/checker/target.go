package checker

import (
	"fmt"
	"net/url"
	"strings"

	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
)

// TargetInfo contains parsed target information
type TargetInfo struct {
	Original string // Original target string
	Scheme   string // http or https
	Host     string // Hostname without port
	Port     string // Port if specified
	FullURL  string // Normalized URL used for the request
}

// ParseTarget parses a target string into structured components.
// Targets without a scheme default to https:
//   - example.com
//   - http://example.com
//   - https://example.com:443/path
//   - example.com:8443
func ParseTarget(target string) (*TargetInfo, error) {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" {
		return nil, sharedErrors.ErrEmptyTarget
	}

	info := &TargetInfo{Original: target}

	// A scheme containing dots is really a host with a port, e.g. example.com:8443.
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || strings.Contains(parsed.Scheme, ".") || parsed.Host == "" {
		parsed, err = url.Parse("https://" + trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", sharedErrors.ErrInvalidInput, target, err)
		}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", sharedErrors.ErrInvalidInput, parsed.Scheme, target)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host in %q", sharedErrors.ErrInvalidInput, target)
	}

	parsed.Scheme = scheme
	info.Scheme = scheme
	info.Host = parsed.Hostname()
	info.Port = parsed.Port()
	info.FullURL = parsed.String()
	return info, nil
}

// NormalizeTarget returns the full URL for target, adding https:// when no
// scheme was given.
func NormalizeTarget(target string) (string, error) {
	info, err := ParseTarget(target)
	if err != nil {
		return "", err
	}
	return info.FullURL, nil
}
