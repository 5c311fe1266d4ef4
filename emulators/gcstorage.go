package emulators

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/docker/go-connections/nat"
	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/api/option"
)

const (
	// testGCSImage is the default fake-gcs-server image to use.
	testGCSImage = "fsouza/fake-gcs-server:latest"
	// testGCSPort is the default internal port for the fake-gcs-server.
	testGCSPort = "4443"
)

// GCSConfig holds configuration specific to the GCS emulator.
type GCSConfig struct {
	GCImageContainer
	// BaseBucket is the name of a bucket the *test* may want to create.
	// This is not created automatically.
	BaseBucket string
	// BaseStorage is the internal health check path for the emulator.
	BaseStorage string
}

// GetDefaultGCSConfig provides a default configuration for the GCS emulator.
func GetDefaultGCSConfig(projectID, baseBucket string) GCSConfig {
	return GCSConfig{
		GCImageContainer: GCImageContainer{
			ImageContainer: ImageContainer{
				EmulatorImage: testGCSImage,
				EmulatorPort:  testGCSPort,
				Alias:         "gcs",
			},
			ProjectID: projectID,
		},
		BaseBucket:  baseBucket,
		BaseStorage: "/storage/v1/b",
	}
}

// GCSDependency declares a fake-gcs-server reachable as cfg.Alias.
func GCSDependency(cfg GCSConfig) (*containers.Container, error) {
	port := tcp(cfg.EmulatorPort)
	return containers.NewDependency(testcontainers.ContainerRequest{
		Image:        cfg.EmulatorImage,
		ExposedPorts: []string{port},
		Cmd:          []string{"-scheme", "http", "-port", cfg.EmulatorPort},
		WaitingFor: wait.ForHTTP(cfg.BaseStorage).WithPort(nat.Port(port)).WithStatusCodeMatcher(
			func(status int) bool {
				// The fake-gcs-server returns 400 for an empty listing, which is healthy.
				return status > 0
			}).WithStartupTimeout(20 * time.Second),
	}, cfg.Alias)
}

// ConnectionInfo returns the emulator endpoint. The GCS client finds the
// emulator through STORAGE_EMULATOR_HOST rather than an endpoint option, so
// the options only disable authentication.
func (cfg GCSConfig) ConnectionInfo(h containers.Handle, host string) (EmulatorConnectionInfo, error) {
	emulatorEndpoint, err := FixedEndpoint(h, host, cfg.EmulatorPort)
	if err != nil {
		return EmulatorConnectionInfo{}, err
	}
	return EmulatorConnectionInfo{
		HTTPEndpoint: Endpoint{
			Port:     cfg.EmulatorPort,
			Endpoint: emulatorEndpoint, // This is just "host:port"
		},
		ClientOptions: []option.ClientOption{option.WithoutAuthentication()},
	}, nil
}

// NewStorageClient creates a new GCS storage client configured for the emulator.
// It sets STORAGE_EMULATOR_HOST for the test and registers a t.Cleanup hook
// to close the client.
//
// This function *only* creates a client. It does NOT create any buckets.
func NewStorageClient(t *testing.T, ctx context.Context, info EmulatorConnectionInfo) *storage.Client {
	t.Helper()
	t.Setenv("STORAGE_EMULATOR_HOST", info.HTTPEndpoint.Endpoint)

	gcsClient, err := storage.NewClient(ctx, info.ClientOptions...)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, gcsClient.Close())
	})
	return gcsClient
}
