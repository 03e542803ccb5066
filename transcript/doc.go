// Package transcript houses implementations of core.TranscriptStore, the
// persistence hook a group chat manager mirrors every transcript entry to.
// The interface lives in core so that the group chat does not depend on a
// concrete backend; only the wiring layer decides which store to use.
//
// Additional backends live in sub packages (see redisstore).
package transcript
