package emulators

// ImageContainer holds basic, non-cloud-specific container configuration.
type ImageContainer struct {
	// EmulatorImage is the full Docker image name and tag (e.g., "redis:8.0.2-alpine").
	EmulatorImage string
	// EmulatorPort is the default *internal* port the container exposes (e.g., "6379").
	// With fixed port exposure it is also the port on the host.
	EmulatorPort string
	// EmulatorGRPCPort is the secondary *internal* gRPC port, used by services like BigQuery.
	EmulatorGRPCPort string
	// Alias is the network alias other containers, and the application's
	// environment, use to address the emulator.
	Alias string
}

// GCImageContainer extends ImageContainer with configuration specific
// to Google Cloud emulators.
type GCImageContainer struct {
	ImageContainer
	// ProjectID is the Google Cloud Project ID to configure the emulator with.
	ProjectID string
}

func tcp(port string) string {
	return port + "/tcp"
}
