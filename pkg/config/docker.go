package config

import (
	"os"
	"sync"
)

// dockerEnvFile exists in every Docker container.
var dockerEnvFile = "/.dockerenv"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether the engine runs inside a Docker container.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat(dockerEnvFile)
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps a loopback database host to host.docker.internal
// when running in Docker, so a containerized engine can reach a Postgres
// running on the developer machine.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if inDocker && (host == "localhost" || host == "127.0.0.1") {
		return "host.docker.internal"
	}
	return host
}
