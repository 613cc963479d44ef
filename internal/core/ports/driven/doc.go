// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ChangeFeed: the wiki's recent-changes log
//   - RevisionFeed: per-page revision history from the wiki API
//   - ImageFeed: the wiki's uploaded-file listing
//   - PageStore / RevisionStore / FileStore: durable archive storage
//   - RunStore: the run ledger that supplies the sync watermark
//   - CheckpointStore: per-phase resume state persistence
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
