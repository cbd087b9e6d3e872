// Package constants centralizes configuration defaults shared across the CLI.
//
// File permissions, fetch limits, scoring weights and the HSTS floor live here
// so that cmd/ and internal/ never carry their own copies of these numbers.
// Nothing in this package depends on other internal packages, which keeps it
// importable from the engine, the header sources and the renderers alike.
package constants
