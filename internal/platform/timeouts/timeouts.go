// Package timeouts defines shared timeout constants used across the
// service. Centralizing these values prevents drift between call sites
// and makes the durations discoverable.
package timeouts

import "time"

// LLMRequest caps the time allowed for a single dialogue, sentiment, or
// judgment call to the language model.
const LLMRequest = 15 * time.Second

// Embedding caps the time allowed for one embedding request during
// memory retrieval.
const Embedding = 10 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
