// Package shadow implements the client-side advisory travel cache.
//
// The cache only exists to resume a countdown display after a client
// restart. It is never the source of truth: before anything in it is
// shown as fact, Reconcile must be run against the authoritative travel
// status, which either resumes the countdown, demands an immediate
// completion (auto-heal), or discards the stale entry.
package shadow
