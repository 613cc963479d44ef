// Package domain defines the core business entities for wikivault.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChangeEvent: one entry from the wiki's recent-changes feed
//   - ChangeSet: the categorised output of a change-detection pass
//   - Page / Revision: the locally archived wiki content
//   - PageUpdateInfo: the resolved fetch plan for a modified page
//   - RunRecord: one entry in the run ledger, source of the watermark
//   - CheckpointState: per-phase resume state for interrupted runs
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
