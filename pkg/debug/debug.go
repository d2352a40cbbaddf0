// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Timeline controls whether every liveness timeline step is printed.
// Use --debug-timeline to enable these logs
var Timeline bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// TimelineLog prints a message only if timeline debug mode is enabled
func TimelineLog(format string, args ...interface{}) {
	if Timeline {
		fmt.Printf(format, args...)
	}
}
