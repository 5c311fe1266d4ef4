package emulators_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/illmade-knight/go-hollowtest/emulators"
	"github.com/illmade-knight/go-hollowtest/environment"
	"github.com/illmade-knight/go-hollowtest/hollow"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

func testcontainersRequest(image string, ports ...string) testcontainers.ContainerRequest {
	return testcontainers.ContainerRequest{Image: image, ExposedPorts: ports}
}

// startHollowEnvironment starts deps on fixed ports for an application that
// already runs on the host. The fixed ports mean these tests cannot run in parallel.
func startHollowEnvironment(t *testing.T, env map[string]string, deps ...containers.Handle) *containers.AppContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping docker-backed test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	app, err := containers.NewApplication(testcontainers.ContainerRequest{Image: "example/orders:latest", Env: env})
	require.NoError(t, err)

	e := environment.New(zerolog.Nop()).Add(deps...).Add(app)
	_, err = e.Configure(hollow.Config{RuntimeURL: "http://localhost:9080"})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := e.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate environment: %v", err)
		}
	})
	require.NoError(t, e.Start(context.Background()))
	return app
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Hostname()
}

func TestPubsubEmulatorThroughRewrittenEnv(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	projectID := "test-project-pubsub"
	cfg := emulators.GetDefaultPubsubConfig(projectID)
	dep, err := emulators.PubsubDependency(cfg)
	require.NoError(t, err)

	app := startHollowEnvironment(t, map[string]string{"PUBSUB_HOST": "pubsub"}, dep)
	require.Equal(t, "localhost", app.Env()["PUBSUB_HOST"])

	info, err := cfg.ConnectionInfo(dep, app.Env()["PUBSUB_HOST"])
	require.NoError(t, err)

	client, err := pubsub.NewClient(ctx, projectID, info.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, fmt.Sprintf("test-topic-%s", uuid.NewString()))
	require.NoError(t, err)
	defer topic.Stop()

	_, err = topic.Publish(ctx, &pubsub.Message{Data: []byte("hello world")}).Get(ctx)
	require.NoError(t, err)
}

func TestFirestoreEmulatorThroughRewrittenEnv(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	projectID := "test-project-firestore"
	cfg := emulators.GetDefaultFirestoreConfig(projectID)
	dep, err := emulators.FirestoreDependency(cfg)
	require.NoError(t, err)

	app := startHollowEnvironment(t, map[string]string{"FIRESTORE_HOST": "firestore"}, dep)

	info, err := cfg.ConnectionInfo(dep, app.Env()["FIRESTORE_HOST"])
	require.NoError(t, err)

	client, err := firestore.NewClient(ctx, projectID, info.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, _, err = client.Collection("testCollection").Add(ctx, map[string]interface{}{
		"field1": "value1",
		"field2": 123,
	})
	require.NoError(t, err, "Failed to add document to Firestore")
}

func TestGCSEmulatorThroughRewrittenEnv(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	cfg := emulators.GetDefaultGCSConfig("test-project-gcs", "test-bucket")
	dep, err := emulators.GCSDependency(cfg)
	require.NoError(t, err)

	app := startHollowEnvironment(t, map[string]string{"STORAGE_URL": "http://gcs:4443/storage/v1/"}, dep)
	require.Equal(t, "http://localhost:4443/storage/v1/", app.Env()["STORAGE_URL"])

	info, err := cfg.ConnectionInfo(dep, hostOf(t, app.Env()["STORAGE_URL"]))
	require.NoError(t, err)

	gcsClient := emulators.NewStorageClient(t, ctx, info)
	require.NoError(t, gcsClient.Bucket(cfg.BaseBucket).Create(ctx, cfg.ProjectID, nil))
	_, err = gcsClient.Bucket(cfg.BaseBucket).Attrs(ctx)
	require.NoError(t, err)
}

func TestBigQueryEmulatorThroughRewrittenEnv(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	t.Cleanup(cancel)

	type TestData struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	projectID := "test-project-bigquery"
	cfg := emulators.GetDefaultBigQueryConfig(projectID, map[string]string{"test_dataset": "test_table"}, map[string]interface{}{"test_table": TestData{}})
	dep, err := emulators.BigQueryDependency(cfg)
	require.NoError(t, err)

	app := startHollowEnvironment(t, map[string]string{"BIGQUERY_URL": "http://bigquery:9050"}, dep)
	require.Equal(t, "http://localhost:9050", app.Env()["BIGQUERY_URL"])

	info, err := cfg.ConnectionInfo(dep, hostOf(t, app.Env()["BIGQUERY_URL"]))
	require.NoError(t, err)

	client, err := bigquery.NewClient(ctx, projectID, info.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, emulators.CreateBigQueryTables(ctx, client, cfg))
	_, err = client.Dataset("test_dataset").Table("test_table").Metadata(ctx)
	require.NoError(t, err)
}
