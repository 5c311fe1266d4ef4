package hollow

import (
	"errors"
	"net/url"

	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/rs/zerolog"
)

// Registry enumerates the containers of one test environment.
type Registry interface {
	Containers() []containers.Handle
}

// Configurator runs configuration passes.
type Configurator struct {
	localHost string
	logger    zerolog.Logger
}

// NewConfigurator creates a Configurator that rewrites aliases to the local
// host named in cfg.
func NewConfigurator(cfg Config, logger zerolog.Logger) *Configurator {
	return &Configurator{
		localHost: cfg.localHost(),
		logger:    logger.With().Str("component", "HollowConfigurator").Logger(),
	}
}

// Apply runs one configuration pass over the containers of registry. The
// runtime URL and the port plan are validated before anything is mutated, so
// a configuration error leaves every handle as it was. On error no container
// may be started.
func (c *Configurator) Apply(registry Registry, runtimeURL string) (PortAssignment, error) {
	appURL, err := parseRuntimeURL(runtimeURL)
	if err != nil {
		return nil, err
	}

	handles := registry.Containers()
	plan, err := PlanFixedPorts(handles)
	if err != nil {
		c.logger.Error().Err(err).Msg("Fixed port exposure failed")
		return nil, err
	}

	var apps []containers.Application
	for _, h := range handles {
		if app, ok := containers.AsApplication(h); ok {
			apps = append(apps, app)
		}
	}

	// Translate any container network hosts configured in application env vars.
	aliases := DependencyAliases(handles)
	for _, app := range apps {
		n := RewriteEnv(app, aliases, c.localHost, c.logger)
		c.logger.Debug().Str("image", app.Image()).Int("rewritten", n).Msg("Application environment translated")
	}

	if err := plan.Apply(c.logger); err != nil {
		c.logger.Error().Err(err).Msg("Fixed port exposure failed")
		return nil, err
	}
	assignment := plan.Assignment()

	for _, app := range apps {
		app.SetRunningURL(appURL)
	}
	c.logger.Info().Int("containers", len(handles)).Int("ports", len(assignment)).Str("runtime_url", appURL.String()).Msg("Configuration pass complete")
	return assignment, nil
}

func parseRuntimeURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &InvalidRuntimeURLError{URL: raw, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &InvalidRuntimeURLError{URL: raw, Err: errors.New("missing scheme or host")}
	}
	return u, nil
}
