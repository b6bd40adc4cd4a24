// Package mocks provides mock collaborators for loader tests: a
// call-counting resolver, an in-memory fetcher, and a failing
// materializer.
package mocks
