package containers

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
)

// Kind tells a dependency container apart from an application under test.
// It is fixed when the handle is constructed.
type Kind int

const (
	// KindDependency is a supporting service such as a database or broker.
	KindDependency Kind = iota
	// KindApplication is the application under test.
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindDependency:
		return "dependency"
	case KindApplication:
		return "application"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Handle is a container declared for a test environment but not yet started.
type Handle interface {
	Kind() Kind
	// Image identifies the container in diagnostics.
	Image() string
	// ExposedPorts returns the declared container ports in declaration order.
	ExposedPorts() []int
	// NetworkAliases returns the names other containers use to reach this one.
	NetworkAliases() []string
	// ExposeFixedPort publishes containerPort on hostPort instead of a random host port.
	ExposeFixedPort(containerPort, hostPort int) error
	// FixedPorts returns the container port -> host port bindings recorded so far.
	FixedPorts() map[int]int
	// Request renders the testcontainers request, attached to network when it is non-empty.
	Request(network string) testcontainers.ContainerRequest
}

// Application is a Handle for the application under test. Its environment
// may reference other containers by network alias.
type Application interface {
	Handle
	// Env returns a copy of the environment the container will be started with.
	Env() map[string]string
	SetEnv(key, value string)
	RunningURL() *url.URL
	SetRunningURL(u *url.URL)
}

// AsApplication reports whether h is an application under test.
func AsApplication(h Handle) (Application, bool) {
	if h.Kind() != KindApplication {
		return nil, false
	}
	app, ok := h.(Application)
	return app, ok
}

// Container is the testcontainers-backed Handle.
type Container struct {
	req     testcontainers.ContainerRequest
	kind    Kind
	ports   []nat.Port
	aliases []string
	fixed   map[int]int
}

// NewDependency declares a dependency container. Ports are taken from
// req.ExposedPorts ("6379/tcp" or "6379"); aliases are applied on the
// environment's shared network when the container starts.
func NewDependency(req testcontainers.ContainerRequest, aliases ...string) (*Container, error) {
	return newContainer(req, KindDependency, aliases)
}

func newContainer(req testcontainers.ContainerRequest, kind Kind, aliases []string) (*Container, error) {
	if req.Image == "" && req.FromDockerfile.Context == "" {
		return nil, fmt.Errorf("container request has neither an image nor a build context")
	}
	ports := make([]nat.Port, 0, len(req.ExposedPorts))
	for _, spec := range req.ExposedPorts {
		proto, port := nat.SplitProtoPort(spec)
		p, err := nat.NewPort(proto, port)
		if err != nil {
			return nil, fmt.Errorf("invalid exposed port %q for %s: %w", spec, req.Image, err)
		}
		if p.Int() <= 0 {
			return nil, fmt.Errorf("invalid exposed port %q for %s", spec, req.Image)
		}
		ports = append(ports, p)
	}
	return &Container{
		req:     req,
		kind:    kind,
		ports:   ports,
		aliases: uniqueSorted(aliases),
		fixed:   make(map[int]int),
	}, nil
}

// Must panics if err is non-nil. It is meant for declarations built from
// constants, such as the emulator catalogue.
func Must[T Handle](h T, err error) T {
	if err != nil {
		panic(err)
	}
	return h
}

func (c *Container) Kind() Kind { return c.kind }

func (c *Container) Image() string {
	if c.req.Image != "" {
		return c.req.Image
	}
	return c.req.FromDockerfile.Context
}

func (c *Container) ExposedPorts() []int {
	out := make([]int, len(c.ports))
	for i, p := range c.ports {
		out[i] = p.Int()
	}
	return out
}

func (c *Container) NetworkAliases() []string {
	return append([]string(nil), c.aliases...)
}

func (c *Container) ExposeFixedPort(containerPort, hostPort int) error {
	if hostPort <= 0 || hostPort > 65535 {
		return fmt.Errorf("host port %d out of range for %s", hostPort, c.Image())
	}
	for _, p := range c.ports {
		if p.Int() == containerPort {
			c.fixed[containerPort] = hostPort
			return nil
		}
	}
	return fmt.Errorf("%s does not expose port %d", c.Image(), containerPort)
}

func (c *Container) FixedPorts() map[int]int {
	out := make(map[int]int, len(c.fixed))
	for k, v := range c.fixed {
		out[k] = v
	}
	return out
}

func (c *Container) Request(network string) testcontainers.ContainerRequest {
	req := c.req
	req.ExposedPorts = append([]string(nil), c.req.ExposedPorts...)
	if c.req.Env != nil {
		req.Env = make(map[string]string, len(c.req.Env))
		for k, v := range c.req.Env {
			req.Env[k] = v
		}
	}

	if network != "" {
		req.Networks = append(append([]string(nil), c.req.Networks...), network)
		req.NetworkAliases = make(map[string][]string, len(c.req.NetworkAliases)+1)
		for k, v := range c.req.NetworkAliases {
			req.NetworkAliases[k] = v
		}
		if len(c.aliases) > 0 {
			req.NetworkAliases[network] = c.NetworkAliases()
		}
	}

	if bindings := c.portBindings(); len(bindings) > 0 {
		prev := c.req.HostConfigModifier
		req.HostConfigModifier = func(hc *container.HostConfig) {
			if prev != nil {
				prev(hc)
			}
			if hc.PortBindings == nil {
				hc.PortBindings = nat.PortMap{}
			}
			for port, b := range bindings {
				hc.PortBindings[port] = b
			}
		}
	}
	return req
}

// portBindings pins every declared protocol of a fixed port number.
func (c *Container) portBindings() nat.PortMap {
	bindings := nat.PortMap{}
	for _, p := range c.ports {
		host, ok := c.fixed[p.Int()]
		if !ok {
			continue
		}
		bindings[p] = []nat.PortBinding{{HostPort: fmt.Sprintf("%d", host)}}
	}
	return bindings
}

// AppContainer is the application-under-test variant of Container.
type AppContainer struct {
	*Container
	runningURL *url.URL
}

// NewApplication declares the application under test. The environment
// in req.Env is what alias rewriting operates on.
func NewApplication(req testcontainers.ContainerRequest, aliases ...string) (*AppContainer, error) {
	c, err := newContainer(req, KindApplication, aliases)
	if err != nil {
		return nil, err
	}
	env := make(map[string]string, len(req.Env))
	for k, v := range req.Env {
		env[k] = v
	}
	c.req.Env = env
	return &AppContainer{Container: c}, nil
}

func (a *AppContainer) Env() map[string]string {
	out := make(map[string]string, len(a.req.Env))
	for k, v := range a.req.Env {
		out[k] = v
	}
	return out
}

func (a *AppContainer) SetEnv(key, value string) {
	a.req.Env[key] = value
}

func (a *AppContainer) RunningURL() *url.URL { return a.runningURL }

func (a *AppContainer) SetRunningURL(u *url.URL) { a.runningURL = u }

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
