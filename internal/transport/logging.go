// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"sync/atomic"

	applog "specviz/internal/log"
)

// LoggingTransport implements the Transport interface by logging data at
// debug level.
type LoggingTransport struct {
	sent atomic.Int64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data as JSON.
func (lt *LoggingTransport) Send(data any) error {
	lt.sent.Add(1)
	if applog.GetLevel() > applog.LevelDebug {
		return nil
	}

	// Log raw if marshaling fails.
	jsonData, err := json.Marshal(data)
	if err != nil {
		applog.Debugf("LOG_TRANSPORT: Received (%T): %+v (JSON marshal error: %v)", data, data, err)
	} else {
		applog.Debugf("LOG_TRANSPORT: Received (%T): %s", data, jsonData)
	}
	return nil // Logging transport never fails to "send"
}

// Sent returns the number of messages passed to Send.
func (lt *LoggingTransport) Sent() int64 {
	return lt.sent.Load()
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LOG_TRANSPORT: Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
