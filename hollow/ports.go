package hollow

import (
	"fmt"

	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/rs/zerolog"
)

// PortAssignment maps a host port to the image of the container holding it.
type PortAssignment map[int]string

// PortPlan is a collision-free claim of host ports, computed before any
// handle is touched.
type PortPlan struct {
	assignment PortAssignment
	claims     []portClaim
}

type portClaim struct {
	handle containers.Handle
	port   int
}

// Assignment returns the planned port -> image mapping.
func (p *PortPlan) Assignment() PortAssignment {
	out := make(PortAssignment, len(p.assignment))
	for k, v := range p.assignment {
		out[k] = v
	}
	return out
}

// PlanFixedPorts claims every declared port of every handle as the same host
// port number without mutating any handle. Handles are visited in order,
// then their ports in declaration order; the first port claimed by two
// different handles returns a *PortCollisionError.
func PlanFixedPorts(handles []containers.Handle) (*PortPlan, error) {
	plan := &PortPlan{assignment: make(PortAssignment)}
	owners := make(map[int]containers.Handle)

	for _, h := range handles {
		for _, p := range h.ExposedPorts() {
			if owner, ok := owners[p]; ok {
				// tcp and udp on the same number share one host port number.
				if owner == h {
					continue
				}
				return nil, &PortCollisionError{Port: p, Image: h.Image(), ClaimedBy: owner.Image()}
			}
			owners[p] = h
			plan.assignment[p] = h.Image()
			plan.claims = append(plan.claims, portClaim{handle: h, port: p})
		}
	}
	return plan, nil
}

// Apply pins every planned port on its handle.
func (p *PortPlan) Apply(logger zerolog.Logger) error {
	for _, c := range p.claims {
		logger.Debug().Int("port", c.port).Str("image", c.handle.Image()).Msg("Exposing port")
		if err := c.handle.ExposeFixedPort(c.port, c.port); err != nil {
			return fmt.Errorf("failed to expose port %d for %s: %w", c.port, c.handle.Image(), err)
		}
	}
	return nil
}

// ExposeFixedPorts plans and applies fixed port exposure in one step. On a
// collision no handle is modified.
func ExposeFixedPorts(handles []containers.Handle, logger zerolog.Logger) (PortAssignment, error) {
	plan, err := PlanFixedPorts(handles)
	if err != nil {
		return nil, err
	}
	if err := plan.Apply(logger); err != nil {
		return nil, err
	}
	return plan.assignment, nil
}
