// Package timeouts defines shared timeout constants used across the adapter.
package timeouts

import "time"

// APIRequest is the default cap for one outbound Cuti-E API call.
const APIRequest = 30 * time.Second

// ReadHeader limits how long the HTTP transport waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP transport waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
