// Package containers declares the containers of a test environment before
// they are started.
//
// A handle is either a dependency (database, broker, emulator) or the
// application under test; the kind is decided by the constructor. Fixed
// host port exposure is a first-class operation on every handle and is
// rendered into the testcontainers request as docker port bindings.
package containers
