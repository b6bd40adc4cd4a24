// Package server manages the admin HTTP server lifecycle: non-blocking
// start, asynchronous error reporting, and graceful shutdown on signal.
// This package is internal and should not be imported by external projects.
package server
