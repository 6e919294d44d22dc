// SPDX-License-Identifier: MIT

// Package transport publishes analysis results to consumers outside the
// process.
package transport

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe, and Send must not block the caller
// for longer than it takes to queue data.
type Transport interface {
	Send(data any) error
	Close() error
}
