// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// negotiate runs a playback capability negotiation against a simulated
// runtime, or serves the negotiation HTTP API.
//
// Usage:
//
//	negotiate [-f config.yaml] [-category video] [-ua UA] [-fail uri,...]
//	          [-family per-source|final-only] [-base URL] [-plan] [-o out.json] uri...
//	negotiate serve [-f config.yaml] [-listen :8089]
//
// Exit codes:
//   - 0: ready (or a plan with surviving candidates)
//   - 1: configuration or runtime error
//   - 2: usage error
//   - 3: unsupported
//   - 4: no capability
package main

import (
	"os"
)

const (
	exitReady        = 0
	exitError        = 1
	exitUsage        = 2
	exitUnsupported  = 3
	exitNoCapability = 4
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		os.Exit(runServe(os.Args[2:]))
	}
	os.Exit(runNegotiate(os.Args[1:], os.Stdout, os.Stderr))
}
