// Package model contains the records tracked by the orchestrator: actions,
// curation candidates, findings, calendar entries and engagement
// opportunities, together with their closed status sets and the decision
// events that drive human approval.
package model
