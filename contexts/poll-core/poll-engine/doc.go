// Package pollengine implements the poll lifecycle engine inside the
// poll-core context.
//
// The module owns poll state transitions (create/close/reveal/cancel/archive),
// the one-ballot-per-voter ledger, answer-key scoring on reveal, and
// deadline-driven expiration through outbox-backed workers. It keeps business
// rules in application/domain layers and isolates infrastructure concerns
// behind ports and adapters.
package pollengine
