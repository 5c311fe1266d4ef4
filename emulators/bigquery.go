package emulators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/docker/go-connections/nat"
	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type BigQueryConfig struct {
	GCImageContainer
	DatasetTables map[string]string
	Schemas       map[string]interface{}
}

const (
	testBigQueryEmulatorImage = "ghcr.io/goccy/bigquery-emulator:0.6.6"
	testBigQueryGRPCPort      = "9060"
	testBigQueryRestPort      = "9050"
)

func GetDefaultBigQueryConfig(projectID string, datasetTables map[string]string, schemaMappings map[string]interface{}) BigQueryConfig {
	return BigQueryConfig{
		GCImageContainer: GCImageContainer{
			ImageContainer: ImageContainer{
				EmulatorImage:    testBigQueryEmulatorImage,
				EmulatorPort:     testBigQueryRestPort,
				EmulatorGRPCPort: testBigQueryGRPCPort,
				Alias:            "bigquery",
			},
			ProjectID: projectID,
		},
		DatasetTables: datasetTables,
		Schemas:       schemaMappings,
	}
}

// BigQueryDependency declares a BigQuery emulator with its REST and gRPC ports.
func BigQueryDependency(cfg BigQueryConfig) (*containers.Container, error) {
	httpPort := tcp(cfg.EmulatorPort)
	grpcPort := tcp(cfg.EmulatorGRPCPort)
	return containers.NewDependency(testcontainers.ContainerRequest{
		Image:        cfg.EmulatorImage,
		ExposedPorts: []string{httpPort, grpcPort},
		Cmd: []string{
			"--project=" + cfg.ProjectID,
			"--port=" + cfg.EmulatorPort,
			"--grpc-port=" + cfg.EmulatorGRPCPort,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(nat.Port(httpPort)).WithStartupTimeout(60*time.Second),
			wait.ForListeningPort(nat.Port(grpcPort)).WithStartupTimeout(60*time.Second),
		),
	}, cfg.Alias)
}

// ConnectionInfo returns both endpoints and client options for the REST endpoint.
func (cfg BigQueryConfig) ConnectionInfo(h containers.Handle, host string) (EmulatorConnectionInfo, error) {
	restAddr, err := FixedEndpoint(h, host, cfg.EmulatorPort)
	if err != nil {
		return EmulatorConnectionInfo{}, err
	}
	grpcAddr, err := FixedEndpoint(h, host, cfg.EmulatorGRPCPort)
	if err != nil {
		return EmulatorConnectionInfo{}, err
	}
	endpointHTTP := "http://" + restAddr
	return EmulatorConnectionInfo{
		HTTPEndpoint: Endpoint{
			Port:     cfg.EmulatorPort,
			Endpoint: endpointHTTP,
		},
		GRPCEndpoint: Endpoint{
			Port:     cfg.EmulatorGRPCPort,
			Endpoint: "grpc://" + grpcAddr,
		},
		EmulatorAddress: grpcAddr,
		ClientOptions:   getEmulatorOptions(endpointHTTP),
	}, nil
}

// CreateBigQueryTables creates the configured datasets and tables, inferring
// each table schema from cfg.Schemas. Existing datasets and tables are kept.
func CreateBigQueryTables(ctx context.Context, client *bigquery.Client, cfg BigQueryConfig) error {
	for k, v := range cfg.DatasetTables {
		err := client.Dataset(k).Create(ctx, &bigquery.DatasetMetadata{Name: k})
		if err != nil && !strings.Contains(err.Error(), "Already Exists") {
			return fmt.Errorf("failed to create dataset %s: %w", k, err)
		}

		schemaType, ok := cfg.Schemas[v]
		if !ok {
			return fmt.Errorf("no schema configured for table %s", v)
		}
		schema, err := bigquery.InferSchema(schemaType)
		if err != nil {
			return fmt.Errorf("failed to infer schema for table %s: %w", v, err)
		}
		err = client.Dataset(k).Table(v).Create(ctx, &bigquery.TableMetadata{Name: v, Schema: schema})
		if err != nil && !strings.Contains(err.Error(), "Already Exists") {
			return fmt.Errorf("failed to create table %s.%s: %w", k, v, err)
		}
	}
	return nil
}
