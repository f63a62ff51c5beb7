// Package core defines the shared language of the prefixsql system.
//
// This package contains:
//   - Connection contract consumed by the rewriter (Connection)
//   - Dialect data (IdentifierConfig, PlaceholderStyle)
//   - Configuration types (AdapterConfig, TargetConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
