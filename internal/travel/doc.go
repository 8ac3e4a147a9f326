// Package travel implements the per-merchant travel state machine.
//
// A merchant is either at rest in a city or in transit between two cities
// with a fixed arrival time. Transit is irrevocable once started; there is
// no cancel operation. Completion is a separate explicit transition that
// only succeeds once the arrival time has passed, and repeated completion
// attempts after arrival are benign no-ops. Queries never mutate state, so
// a trip whose timer has elapsed stays "traveling" until someone (a client
// or the reconciliation watcher) completes it.
package travel
