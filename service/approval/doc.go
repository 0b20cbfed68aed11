// Package approval implements the human-in-the-loop approval protocol.
//
// A Coordinator dispatches a prompt for an action and suspends on a
// single-resolution Waiter keyed by the action id until a decision arrives or
// the timeout elapses. A Router applies decision events delivered out of band
// to the ledger and resolves the matching Waiter, if any. Listen drives the
// Router from a messaging queue.
package approval
