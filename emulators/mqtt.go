package emulators

import (
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// mosquitoImage is the default Eclipse Mosquitto image to use.
	mosquitoImage = "eclipse-mosquitto:2.0"
	// mosquitoPort is the default internal port for the Mosquitto broker.
	mosquitoPort  = "1883"
	mosquitoAlias = "mqtt"
)

// GetDefaultMqttImageContainer returns a default configuration for the Mosquitto container.
func GetDefaultMqttImageContainer() ImageContainer {
	return ImageContainer{
		EmulatorImage: mosquitoImage,
		EmulatorPort:  mosquitoPort,
		Alias:         mosquitoAlias,
	}
}

// MosquittoDependency declares a Mosquitto broker reachable as cfg.Alias.
// Mosquitto requires a config file to allow anonymous access; it is copied
// into the container at start.
func MosquittoDependency(cfg ImageContainer) (*containers.Container, error) {
	port := tcp(cfg.EmulatorPort)
	conf := fmt.Sprintf("listener %s\nallow_anonymous true\n", cfg.EmulatorPort)
	return containers.NewDependency(testcontainers.ContainerRequest{
		Image:        cfg.EmulatorImage,
		ExposedPorts: []string{port},
		WaitingFor:   wait.ForListeningPort(nat.Port(port)).WithStartupTimeout(60 * time.Second),
		Files: []testcontainers.ContainerFile{{
			Reader:            strings.NewReader(conf),
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}, cfg.Alias)
}

// MqttConnectionInfo returns the broker URL (e.g., "tcp://localhost:1883").
func MqttConnectionInfo(h containers.Handle, cfg ImageContainer, host string) (EmulatorConnectionInfo, error) {
	addr, err := FixedEndpoint(h, host, cfg.EmulatorPort)
	if err != nil {
		return EmulatorConnectionInfo{}, err
	}
	return EmulatorConnectionInfo{EmulatorAddress: "tcp://" + addr}, nil
}

// CreateTestMqttPublisher is a helper function that creates and connects an
// MQTT client (publisher) to the specified broker URL.
// It waits up to 10 seconds to connect; a broker that does not answer in
// time is an error.
func CreateTestMqttPublisher(brokerURL, clientID string) (mqtt.Client, error) {
	return createMqttPublisher(brokerURL, clientID, 10*time.Second)
}

func createMqttPublisher(brokerURL, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(false)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("test mqtt publisher connect to %s timed out after %s", brokerURL, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("test mqtt publisher connect error: %w", err)
	}
	return client, nil
}
