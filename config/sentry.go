package config

import "fmt"

// SentryConfig enables error reporting for CLI operations. Leaving DSN empty
// disables it.
type SentryConfig struct {
	DSN         string `json:"dsn"`
	Environment string `json:"environment"`
	// TracesSampleRate is passed to the Sentry client, in [0,1].
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// Validate checks the sample rate bounds.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate %v outside [0,1]", c.TracesSampleRate)
	}
	return nil
}
