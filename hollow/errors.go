package hollow

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every error that aborts a configuration pass.
var ErrConfiguration = errors.New("test environment configuration failed")

// PortCollisionError is returned when two containers declare the same
// exposed port. No container may be started after it.
type PortCollisionError struct {
	Port int
	// Image is the container that tried to claim Port.
	Image string
	// ClaimedBy is the container that already holds Port.
	ClaimedBy string
}

func (e *PortCollisionError) Error() string {
	return fmt.Sprintf("cannot expose port %d for %s because another container (%s) is already using it", e.Port, e.Image, e.ClaimedBy)
}

func (e *PortCollisionError) Is(target error) bool { return target == ErrConfiguration }

// InvalidRuntimeURLError is returned when the application URL does not parse
// as an absolute URL.
type InvalidRuntimeURLError struct {
	URL string
	Err error
}

func (e *InvalidRuntimeURLError) Error() string {
	return fmt.Sprintf("the application URL '%s' was not a valid URL: %v", e.URL, e.Err)
}

func (e *InvalidRuntimeURLError) Unwrap() error { return e.Err }

func (e *InvalidRuntimeURLError) Is(target error) bool { return target == ErrConfiguration }

// UnavailableConfigError is returned when a Config names no running
// application: neither a runtime URL nor a hostname with a port.
type UnavailableConfigError struct {
	Hostname  string
	HTTPPort  string
	HTTPSPort string
}

func (e *UnavailableConfigError) Error() string {
	return fmt.Sprintf("no running application configured: set %s, or %s with %s or %s (hostname=%q, http port=%q, https port=%q)",
		EnvRuntimeURL, EnvHostname, EnvHTTPPort, EnvHTTPSPort, e.Hostname, e.HTTPPort, e.HTTPSPort)
}

func (e *UnavailableConfigError) Is(target error) bool { return target == ErrConfiguration }
