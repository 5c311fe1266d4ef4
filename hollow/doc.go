// Package hollow prepares a test environment in which the application under
// test runs on the host while its dependencies run in containers.
//
// A configuration pass, run once before any container starts, does three
// things:
//
//  1. Rewrites application environment values that name a dependency's
//     network alias so they point at the local host instead.
//  2. Publishes every declared container port on the same host port, failing
//     with a PortCollisionError when two containers declare the same port.
//  3. Validates the runtime URL of the already running application and sets
//     it on every application handle.
//
// The pass is single-threaded and holds no state between runs.
package hollow
