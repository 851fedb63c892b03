// Package console renders routed supervisor output.
//
// Two sink contracts mirror the two destinations of the tagged-line
// protocol: LogSink receives ordinary lines, WatchSink receives key/value
// updates where a later value for the same (tab, tag) replaces the earlier
// one. Implementations cover a styled terminal stream, an in-memory watch
// table, newline-delimited JSON and a compressed transcript file.
package console
