// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The StageOrchestrator sequences the remote stages, the BatchEngine drives
// the resumable stage 3 loop and the ProgressPoller reads remote progress
// while a long stage request is in flight.
package services
