// Package types defines the shared data model for repository analysis:
// requests, file entries, metric summaries, directory trees, and the
// error taxonomy exposed over the RPC boundary. All values are plain
// data; once constructed they are never mutated by the pipeline.
package types
