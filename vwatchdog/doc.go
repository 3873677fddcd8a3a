// Package vwatchdog provides a liveness watchdog for the simulation's
// long-running loops.
//
// Subsystems request a monitor and must acknowledge the periodic signals
// arriving on the returned channel.
// A subsystem that fails to acknowledge within its configured response
// timeout is assumed wedged, and the watchdog cancels the context
// shared by the whole simulation.
package vwatchdog
