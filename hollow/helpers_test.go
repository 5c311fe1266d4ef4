package hollow_test

import (
	"testing"

	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// MockRegistry is a mock implementation of the Registry interface.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Containers() []containers.Handle {
	args := m.Called()
	var handles []containers.Handle
	if h, ok := args.Get(0).([]containers.Handle); ok {
		handles = h
	}
	return handles
}

func newDependency(t *testing.T, image string, ports []string, aliases ...string) *containers.Container {
	t.Helper()
	c, err := containers.NewDependency(testcontainers.ContainerRequest{Image: image, ExposedPorts: ports}, aliases...)
	require.NoError(t, err)
	return c
}

func newApplication(t *testing.T, image string, ports []string, env map[string]string) *containers.AppContainer {
	t.Helper()
	app, err := containers.NewApplication(testcontainers.ContainerRequest{Image: image, ExposedPorts: ports, Env: env})
	require.NoError(t, err)
	return app
}

func testcontainersRequest(image string) testcontainers.ContainerRequest {
	return testcontainers.ContainerRequest{Image: image}
}
