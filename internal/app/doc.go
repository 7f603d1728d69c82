// Package app provides the session controller and its periodic tasks.
//
// Orchestrates one exam attempt: schedule check, uplink negotiation, countdown, warning and
// capture polling, and the submission pipeline. Depends on domain interfaces, not concrete
// adapters. Every task is driven by a clockwork.Clock so tests can run on a fake clock.
package app
