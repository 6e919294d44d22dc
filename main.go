// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"runtime"

	"specviz/cmd"
	applog "specviz/internal/log"
	"specviz/pkg/build"
)

// main is the entry point of the visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and load configuration
//
// 2. Concurrent Phase (Hot Path):
//   - Audio callback pushes frames into the session ring buffer
//   - Render tick analyzes snapshots and publishes bars
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the stream and finalize any recording
//   - Close transports
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds carry no ldflags and report "dev".
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	// Limit OS threads for real-time audio processing:
	// - One thread dedicated to the audio callback (time-critical)
	// - One thread for rendering, transports and I/O
	runtime.GOMAXPROCS(2)

	inv, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// ============ CONCURRENT AND SHUTDOWN PHASES (in cmd.Run) ============

	if err := cmd.Run(inv); err != nil {
		applog.Fatalf("%v", err)
	}
}
