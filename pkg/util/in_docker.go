// Package util contains helpers that don't match any other package
package util

import (
	"os"
	"strings"
)

// IsRunningInDocker reports whether the process runs inside a container.
func IsRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	b, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}

	s := string(b)
	return strings.Contains(s, "docker") || strings.Contains(s, "containerd") || strings.Contains(s, "kubepods")
}
