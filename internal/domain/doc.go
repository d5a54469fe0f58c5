// Package domain defines the core business types for the adpilot engine.
//
// Types in this package are pure value objects with no behavior beyond
// derived-metric computation, no database dependencies, and no HTTP
// concerns. They are the shared language between adapters, the unified
// client, the optimizer, and the automation tracker.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Derived-rate methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
