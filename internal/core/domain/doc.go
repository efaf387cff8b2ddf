// Package domain defines the core business entities for stagesync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Stage: One of the three remote processing stages, or a full sync
//   - SyncSession: The single in-flight orchestration record
//   - BatchResult: The outcome of one resumable stage 3 batch
//   - ProgressSnapshot: A point-in-time read of remote job progress
//   - FileStatus: Remote artifact existence and the derived stage eligibility
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
