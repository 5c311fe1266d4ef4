package emulators

import (
	"fmt"

	"github.com/docker/go-connections/nat"
	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// testEmulatorImage is the shared Google Cloud SDK emulator image for various services.
	testEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

	// testPubsubEmulatorPort is the default port for the Pub/Sub emulator.
	testPubsubEmulatorPort = "8085"

	// testFirestoreEmulatorPort is the default port for the Firestore emulator.
	testFirestoreEmulatorPort = "8080"
)

// PubsubConfig holds configuration specific to the Pub/Sub emulator.
type PubsubConfig struct {
	GCImageContainer
}

// FirestoreConfig holds configuration specific to the Firestore emulator.
type FirestoreConfig struct {
	GCImageContainer
}

// GetDefaultPubsubConfig provides a default configuration for the Pub/Sub emulator.
func GetDefaultPubsubConfig(projectID string) PubsubConfig {
	return PubsubConfig{
		GCImageContainer: GCImageContainer{
			ImageContainer: ImageContainer{
				EmulatorImage: testEmulatorImage,
				EmulatorPort:  testPubsubEmulatorPort,
				Alias:         "pubsub",
			},
			ProjectID: projectID,
		},
	}
}

// GetDefaultFirestoreConfig provides a default configuration for the Firestore emulator.
func GetDefaultFirestoreConfig(projectID string) FirestoreConfig {
	return FirestoreConfig{
		GCImageContainer: GCImageContainer{
			ImageContainer: ImageContainer{
				EmulatorImage: testEmulatorImage,
				EmulatorPort:  testFirestoreEmulatorPort,
				Alias:         "firestore",
			},
			ProjectID: projectID,
		},
	}
}

// PubsubDependency declares a Pub/Sub emulator reachable as cfg.Alias.
func PubsubDependency(cfg PubsubConfig) (*containers.Container, error) {
	return gcloudEmulator(cfg.GCImageContainer, "pubsub")
}

// FirestoreDependency declares a Firestore emulator reachable as cfg.Alias.
func FirestoreDependency(cfg FirestoreConfig) (*containers.Container, error) {
	return gcloudEmulator(cfg.GCImageContainer, "firestore")
}

func gcloudEmulator(cfg GCImageContainer, service string) (*containers.Container, error) {
	port := tcp(cfg.EmulatorPort)
	return containers.NewDependency(testcontainers.ContainerRequest{
		Image:        cfg.EmulatorImage,
		ExposedPorts: []string{port},
		Cmd: []string{
			"gcloud", "beta", "emulators", service, "start",
			fmt.Sprintf("--project=%s", cfg.ProjectID),
			fmt.Sprintf("--host-port=0.0.0.0:%s", cfg.EmulatorPort),
		},
		WaitingFor: wait.ForListeningPort(nat.Port(port)),
	}, cfg.Alias)
}

// ConnectionInfo returns client options for a started Pub/Sub dependency.
func (cfg PubsubConfig) ConnectionInfo(h containers.Handle, host string) (EmulatorConnectionInfo, error) {
	return gcloudConnectionInfo(h, cfg.GCImageContainer, host)
}

// ConnectionInfo returns client options for a started Firestore dependency.
func (cfg FirestoreConfig) ConnectionInfo(h containers.Handle, host string) (EmulatorConnectionInfo, error) {
	return gcloudConnectionInfo(h, cfg.GCImageContainer, host)
}

func gcloudConnectionInfo(h containers.Handle, cfg GCImageContainer, host string) (EmulatorConnectionInfo, error) {
	emulatorHost, err := FixedEndpoint(h, host, cfg.EmulatorPort)
	if err != nil {
		return EmulatorConnectionInfo{}, err
	}
	return EmulatorConnectionInfo{
		HTTPEndpoint: Endpoint{
			Port:     cfg.EmulatorPort,
			Endpoint: emulatorHost,
		},
		ClientOptions: getEmulatorOptions(emulatorHost),
	}, nil
}
