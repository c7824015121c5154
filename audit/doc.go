// Package audit records security relevant kernel actions to SQLite.
//
// Entries are buffered in memory and flushed by a background writer, so
// recording never blocks the hot path. The shutdown coordinator calls
// Flush during its flushing phase to make sure nothing buffered is lost.
package audit
