package emulators

import (
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// Redis Configuration (using a local container)
	cloudTestRedisImage = "redis:8.0.2-alpine"
	cloudTestRedisPort  = "6379"
	cloudTestRedisAlias = "redis"
)

func GetDefaultRedisImageContainer() ImageContainer {
	return ImageContainer{
		EmulatorImage: cloudTestRedisImage,
		EmulatorPort:  cloudTestRedisPort, // This is the primary port for Redis
		Alias:         cloudTestRedisAlias,
	}
}

// RedisDependency declares a Redis container reachable as cfg.Alias.
func RedisDependency(cfg ImageContainer) (*containers.Container, error) {
	port := tcp(cfg.EmulatorPort)
	return containers.NewDependency(testcontainers.ContainerRequest{
		Image:        cfg.EmulatorImage,
		ExposedPorts: []string{port},
		WaitingFor:   wait.ForListeningPort(nat.Port(port)).WithStartupTimeout(60 * time.Second),
	}, cfg.Alias)
}

// RedisConnectionInfo returns the address of a Redis dependency on host.
func RedisConnectionInfo(h containers.Handle, cfg ImageContainer, host string) (EmulatorConnectionInfo, error) {
	addr, err := FixedEndpoint(h, host, cfg.EmulatorPort)
	if err != nil {
		return EmulatorConnectionInfo{}, err
	}
	return EmulatorConnectionInfo{EmulatorAddress: addr}, nil
}
