// Spdctl sends speech and control commands to speech-dispatcher.
//
// Usage:
//
//	spdctl say "hello world"
//	spdctl --threaded say --wait "read this to the end"
//	spdctl set rate 30 --all
//	spdctl list synthesis-voices
package main

import (
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
