package hollow_test

import (
	"errors"
	"testing"

	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/illmade-knight/go-hollowtest/hollow"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExposeFixedPorts(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("distinct ports are pinned to themselves", func(t *testing.T) {
		redis := newDependency(t, "redis:8.0.2-alpine", []string{"6379/tcp"}, "redis")
		bq := newDependency(t, "ghcr.io/goccy/bigquery-emulator:0.6.6", []string{"9050/tcp", "9060/tcp"}, "bigquery")
		app := newApplication(t, "example/orders:latest", []string{"9080/tcp"}, nil)

		assignment, err := hollow.ExposeFixedPorts([]containers.Handle{redis, bq, app}, logger)
		require.NoError(t, err)

		assert.Equal(t, hollow.PortAssignment{
			6379: "redis:8.0.2-alpine",
			9050: "ghcr.io/goccy/bigquery-emulator:0.6.6",
			9060: "ghcr.io/goccy/bigquery-emulator:0.6.6",
			9080: "example/orders:latest",
		}, assignment)
		assert.Equal(t, map[int]int{6379: 6379}, redis.FixedPorts())
		assert.Equal(t, map[int]int{9050: 9050, 9060: 9060}, bq.FixedPorts())
		assert.Equal(t, map[int]int{9080: 9080}, app.FixedPorts())
	})

	t.Run("two containers on one port collide", func(t *testing.T) {
		a := newDependency(t, "a:latest", []string{"8080/tcp"})
		b := newDependency(t, "b:latest", []string{"8080/tcp"})

		_, err := hollow.ExposeFixedPorts([]containers.Handle{a, b}, logger)
		require.Error(t, err)

		var collision *hollow.PortCollisionError
		require.True(t, errors.As(err, &collision))
		assert.Equal(t, 8080, collision.Port)
		assert.Equal(t, "b:latest", collision.Image)
		assert.Equal(t, "a:latest", collision.ClaimedBy)
		assert.ErrorIs(t, err, hollow.ErrConfiguration)
		assert.Contains(t, err.Error(), "8080")
		assert.Contains(t, err.Error(), "a:latest")
		assert.Contains(t, err.Error(), "b:latest")
		assert.Empty(t, a.FixedPorts(), "a collision must leave every handle untouched")
		assert.Empty(t, b.FixedPorts())
	})

	t.Run("two instances of the same image collide", func(t *testing.T) {
		first := newApplication(t, "example/orders:latest", []string{"9080/tcp"}, nil)
		second := newApplication(t, "example/orders:latest", []string{"9080/tcp"}, nil)

		_, err := hollow.ExposeFixedPorts([]containers.Handle{first, second}, logger)
		var collision *hollow.PortCollisionError
		require.ErrorAs(t, err, &collision)
		assert.Equal(t, 9080, collision.Port)
	})

	t.Run("tcp and udp on one container do not collide", func(t *testing.T) {
		dns := newDependency(t, "coredns/coredns:1.11.1", []string{"53/tcp", "53/udp"}, "dns")

		assignment, err := hollow.ExposeFixedPorts([]containers.Handle{dns}, logger)
		require.NoError(t, err)
		assert.Equal(t, hollow.PortAssignment{53: "coredns/coredns:1.11.1"}, assignment)
	})

	t.Run("containers without ports are skipped", func(t *testing.T) {
		worker := newDependency(t, "busybox:latest", nil)

		assignment, err := hollow.ExposeFixedPorts([]containers.Handle{worker}, logger)
		require.NoError(t, err)
		assert.Empty(t, assignment)
	})
}
