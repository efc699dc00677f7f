// Package pipeline runs the issue detection checks on each crawled page.
//
// Every check is an independent Check implementation that consumes the
// page snapshot (response metadata, document handle and outbound links) and
// returns zero or more issues. The Pipeline executes enabled checks in a
// fixed order so that reports are reproducible between runs.
//
// Checks are switched on and off individually from configuration, and the
// context passed to Run cancels link checks that are still in flight.
//
// A failing check degrades to "no issues from this check" and the remaining
// checks still run, unless the pipeline is configured to stop on error.
package pipeline
