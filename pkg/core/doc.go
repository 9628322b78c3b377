// Package core defines the shared language of the ssykroll system.
//
// This package contains:
//   - Domain entities (RawRecord, Record, HierRecord, ChildCount, Row)
//   - The fixed four-level SSYK hierarchy (Level)
//   - Service interfaces (Store)
//   - Sentinel errors shared by the pipeline stages
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
