// Package harness runs YAML conformance scenarios against the engine.
//
// A scenario declares a flow of submit, update and remove steps with
// deterministic result IDs and a frozen wall clock, plus optional inline
// expectations on the final tags and rankings. Each run executes against
// a fresh in-memory database, and the final result table and audit trail
// are rendered into a snapshot compared against a golden file, so any
// drift in cascade behavior shows up as a readable diff.
//
// To regenerate golden files after an intentional behavior change:
//
//	go test ./internal/harness -update
package harness
