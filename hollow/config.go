package hollow

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvHostname   = "HOLLOW_HOSTNAME"
	EnvHTTPPort   = "HOLLOW_HTTP_PORT"
	EnvHTTPSPort  = "HOLLOW_HTTPS_PORT"
	EnvRuntimeURL = "HOLLOW_RUNTIME_URL"
	EnvLocalHost  = "HOLLOW_LOCAL_HOST"
)

// Config describes an application that was started outside the test
// environment, on the host.
type Config struct {
	// Hostname of the running application.
	Hostname string `yaml:"hostname"`
	// HTTPPort and HTTPSPort of the running application; one is enough.
	HTTPPort  string `yaml:"httpPort"`
	HTTPSPort string `yaml:"httpsPort"`
	// RuntimeURL overrides the URL built from Hostname and the ports.
	RuntimeURL string `yaml:"runtimeURL"`
	// LocalHost replaces dependency aliases. Defaults to "localhost".
	LocalHost string `yaml:"localHost"`
}

// ConfigFromEnv builds a Config from environment variables looked up with
// lookup, usually os.LookupEnv.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	return Config{
		Hostname:   get(EnvHostname),
		HTTPPort:   get(EnvHTTPPort),
		HTTPSPort:  get(EnvHTTPSPort),
		RuntimeURL: get(EnvRuntimeURL),
		LocalHost:  get(EnvLocalHost),
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge returns c with every non-empty field of override applied on top.
func (c Config) Merge(override Config) Config {
	pick := func(base, o string) string {
		if o != "" {
			return o
		}
		return base
	}
	return Config{
		Hostname:   pick(c.Hostname, override.Hostname),
		HTTPPort:   pick(c.HTTPPort, override.HTTPPort),
		HTTPSPort:  pick(c.HTTPSPort, override.HTTPSPort),
		RuntimeURL: pick(c.RuntimeURL, override.RuntimeURL),
		LocalHost:  pick(c.LocalHost, override.LocalHost),
	}
}

// Available reports whether c points at a running application.
func (c Config) Available() bool {
	if c.RuntimeURL != "" {
		return true
	}
	return c.Hostname != "" && (c.HTTPPort != "" || c.HTTPSPort != "")
}

// Validate returns an *UnavailableConfigError when c is not Available.
func (c Config) Validate() error {
	if c.Available() {
		return nil
	}
	return &UnavailableConfigError{Hostname: c.Hostname, HTTPPort: c.HTTPPort, HTTPSPort: c.HTTPSPort}
}

// ResolveRuntimeURL returns the application URL. The HTTP port is preferred
// over the HTTPS port; an unavailable config resolves to "".
func (c Config) ResolveRuntimeURL() string {
	switch {
	case c.RuntimeURL != "":
		return c.RuntimeURL
	case c.Hostname == "":
		return ""
	case c.HTTPPort != "":
		return "http://" + net.JoinHostPort(c.Hostname, c.HTTPPort)
	case c.HTTPSPort != "":
		return "https://" + net.JoinHostPort(c.Hostname, c.HTTPSPort)
	default:
		return ""
	}
}

func (c Config) localHost() string {
	if c.LocalHost == "" {
		return DefaultLocalHost
	}
	return c.LocalHost
}
