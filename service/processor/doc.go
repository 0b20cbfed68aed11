// Package processor runs an action session: it picks the session's drafts,
// validates them, executes auto-tier actions directly, routes the rest
// through human approval and records every outcome on the ledger.
package processor
