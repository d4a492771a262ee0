// Package memory provides in-process implementations of the toolcast
// repository interfaces. They are safe for concurrent use and intended for
// tests, examples and single-instance development servers.
//
// Records are copied in and out, so callers never share state with the store.
package memory
