package config

import (
	"os"
	"sync"
)

var (
	inContainerOnce   sync.Once
	inContainerResult bool
)

// containerMarkers are files the Docker and Podman runtimes create inside containers.
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// IsRunningInContainer reports whether the seeder runs inside a container.
// The result is cached after the first call.
func IsRunningInContainer() bool {
	inContainerOnce.Do(func() {
		for _, marker := range containerMarkers {
			if _, err := os.Stat(marker); err == nil {
				inContainerResult = true
				return
			}
		}
	})
	return inContainerResult
}

// ResolveHostForDocker maps a loopback database host to host.docker.internal when
// running in a container, so a store on the container host stays reachable.
func ResolveHostForDocker(host string) string {
	if !IsRunningInContainer() {
		return host
	}

	switch host {
	case "localhost", "127.0.0.1", "::1":
		return "host.docker.internal"
	}
	return host
}
