// Package bridge connects a compiled simulation to an external viewer.
//
// A Session owns the simulation and serializes drag input against solver
// steps. A Client joins the viewer's socket.io namespace, publishes the
// session's snapshot as "state" events and applies incoming "drag" events.
// NewHandler exposes the same session over HTTP for health checks.
package bridge
