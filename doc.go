// Package crier provides a human-in-the-loop social posting orchestrator.
//
// Each session picks a bounded set of drafted actions from the content
// calendar, queued conversation findings, approved curation candidates and
// pending engagement opportunities. Low-risk actions run automatically; the
// rest are sent to a reviewer and executed only once approved. Curation runs
// on its own cycle: feeds are scanned, keyword filtered and judged by a
// language model before candidates become eligible for sharing.
//
// Host applications typically interact with the orchestrator through the
// Service façade exposed by the root package:
//
//	srv, _ := crier.New(crier.WithConfig(cfg))
//	defer srv.Close()
//	go srv.Listen(ctx)
//	report, _ := srv.RunSession(ctx)
//
// See cmd/crier for the scheduled daemon built on top of it.
package crier
