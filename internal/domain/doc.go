// Package domain defines the core domain types and interfaces of the proctoring agent.
//
// Concept-oriented files (session.go, warning.go, submission.go, errors.go, ports.go) hold
// shared types and the interfaces the app layer consumes. No implementation code - just contracts.
// Adapters depend on this package, never the other way round.
package domain
