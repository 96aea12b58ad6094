// Package buildinfo provides build information for bradis.
//
// This package exposes build-time information injected via ldflags:
//
//   - version: Semantic version (e.g., "1.0.0")
//   - commit: Git commit hash
//   - buildTime: Build timestamp
//
// Usage:
//
//	go build -ldflags "-X github.com/braddunbar/bradis/internal/infra/buildinfo.version=1.0.0 -X github.com/braddunbar/bradis/internal/infra/buildinfo.commit=abc123"
package buildinfo
