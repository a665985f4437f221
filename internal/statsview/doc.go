// Package statsview serves live runtime statistics (heap, goroutines, GC) over
// HTTP while the emulator runs. It is only built with the statsview build tag;
// without it Available reports false and Launch does nothing.
//
// With the tag, charts are served at
//
//	<addr>/debug/statsview
//
// and the standard pprof handlers at <addr>/debug/pprof/.
package statsview
