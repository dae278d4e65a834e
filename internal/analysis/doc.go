// Package analysis contains the repository analysis engine: the metrics
// aggregator, the directory tree builder, and the Analyzer facade that
// drives walker -> matcher -> consumers for one request.
//
// # Pipeline
//
// A request is processed by a single logical worker. The walker produces
// one deterministic entry stream; the consumers selected by the request's
// kinds all feed from that same stream (fan-out of one walk, never one
// walk per kind). Consumers are plain single-threaded accumulators, which
// keeps aggregation ordering deterministic.
//
// Multiple requests run independently in parallel worker slots bounded by
// the configured concurrency limit; the only state shared between them is
// the immutable configuration.
//
// # Statuses
//
// Reaching the file cap is a normal outcome: the walk stops early and the
// result carries status "truncated" with everything accumulated so far.
// Request-validation, repository-access, and revision errors are terminal
// and produce no partial data. Per-file read failures are neither: they
// accumulate in the result's skipped-path list while the walk continues.
package analysis
