// Package backup runs one backup pass over a set of discovered devices.
//
// The Orchestrator contacts at most MaxParallel devices at a time, gives
// each device its own timeout, and collects exactly one Outcome per unique
// device into a Run. Failures are contained to the device they happen on.
package backup
