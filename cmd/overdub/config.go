// SPDX-License-Identifier: EPL-2.0

package main

import (
	"os"
	"strconv"
)

// config holds CLI defaults, loaded from environment variables.
type config struct {
	TakeDir    string
	SampleRate int
	BitDepth   int
}

func loadConfig() config {
	return config{
		TakeDir:    envStr("OVERDUB_DIR", "."),
		SampleRate: envInt("OVERDUB_RATE", 44100),
		BitDepth:   envInt("OVERDUB_DEPTH", 16),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
