// Package environment holds the containers of one test environment, runs the
// hollow configuration pass over them and starts them on a shared network.
package environment

import (
	"context"
	"errors"
	"fmt"

	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/illmade-knight/go-hollowtest/hollow"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
)

// Environment is an ordered set of container handles. It is not safe for
// concurrent use; configure and start it from one goroutine.
type Environment struct {
	handles    []containers.Handle
	started    map[containers.Handle]testcontainers.Container
	order      []containers.Handle
	net        *testcontainers.DockerNetwork
	assignment hollow.PortAssignment
	logger     zerolog.Logger
}

// New creates an empty Environment.
func New(logger zerolog.Logger) *Environment {
	return &Environment{
		started: make(map[containers.Handle]testcontainers.Container),
		logger:  logger.With().Str("component", "Environment").Logger(),
	}
}

// Add registers handles in start order.
func (e *Environment) Add(handles ...containers.Handle) *Environment {
	e.handles = append(e.handles, handles...)
	return e
}

// Containers returns the registered handles in registration order.
func (e *Environment) Containers() []containers.Handle {
	return append([]containers.Handle(nil), e.handles...)
}

// Configure runs the hollow configuration pass for an application that is
// already running as described by cfg.
func (e *Environment) Configure(cfg hollow.Config) (hollow.PortAssignment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	assignment, err := hollow.NewConfigurator(cfg, e.logger).Apply(e, cfg.ResolveRuntimeURL())
	if err != nil {
		return nil, err
	}
	e.assignment = assignment
	return assignment, nil
}

// Assignment returns the host ports fixed by the last successful Configure.
func (e *Environment) Assignment() hollow.PortAssignment {
	return e.assignment
}

// Start creates the shared network and starts every container in
// registration order. Applications with a running URL already run outside
// the environment and are not started. On error the containers started so
// far are left for Terminate.
func (e *Environment) Start(ctx context.Context) error {
	if e.net == nil {
		net, err := network.New(ctx)
		if err != nil {
			return fmt.Errorf("failed to create test network: %w", err)
		}
		e.net = net
		e.logger.Info().Str("network", net.Name).Msg("Test network created")
	}

	for _, h := range e.handles {
		if _, ok := e.started[h]; ok {
			continue
		}
		if app, ok := containers.AsApplication(h); ok && app.RunningURL() != nil {
			e.logger.Info().Str("image", h.Image()).Str("url", app.RunningURL().String()).Msg("Application already running, not starting a container")
			continue
		}

		req := h.Request(e.net.Name)
		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
		if err != nil {
			return fmt.Errorf("failed to start %s: %w", h.Image(), err)
		}
		e.started[h] = c
		e.order = append(e.order, h)
		e.logger.Info().Str("image", h.Image()).Strs("aliases", h.NetworkAliases()).Msg("Container started")
	}
	return nil
}

// Container returns the running container for h.
func (e *Environment) Container(h containers.Handle) (testcontainers.Container, bool) {
	c, ok := e.started[h]
	return c, ok
}

// Terminate stops started containers in reverse start order and removes
// the network.
func (e *Environment) Terminate(ctx context.Context) error {
	var errs []error
	for i := len(e.order) - 1; i >= 0; i-- {
		h := e.order[i]
		if err := e.started[h].Terminate(ctx); err != nil {
			e.logger.Warn().Err(err).Str("image", h.Image()).Msg("Failed to terminate container")
			errs = append(errs, fmt.Errorf("terminate %s: %w", h.Image(), err))
		}
		delete(e.started, h)
	}
	e.order = nil

	if e.net != nil {
		if err := e.net.Remove(ctx); err != nil {
			errs = append(errs, fmt.Errorf("remove network %s: %w", e.net.Name, err))
		}
		e.net = nil
	}
	return errors.Join(errs...)
}
