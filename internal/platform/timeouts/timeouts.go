// Package timeouts defines shared timeout constants used across the
// worldforge processes. Centralizing these values prevents drift between
// boundaries and makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// NarratorDial caps the wait time when opening a narrator stream.
const NarratorDial = 10 * time.Second

// NarratorIdle bounds the silence allowed between narrator stream events
// before the stream is treated as a network failure.
const NarratorIdle = 60 * time.Second
