// Package systest implements the core of a systematic concurrency testing
// engine for actor-based and task-based programs.
//
// A test program spawns actors (or plain tasks) through a [Runtime]. The
// runtime owns every actor's inbox, decides — deterministically from a seed
// — which operation runs at each scheduling point, and exposes controlled
// primitives for nondeterministic choice, receive, timers, and monitors. It
// records an execution trace sufficient to replay the exact same
// interleaving via the trace package.
//
// Two subsystems do most of the work: the actor/state-machine dispatch
// engine (event-driven, hierarchical, with deferred/ignored events, a
// push/pop state stack, and raise-vs-send priority) and the controlled
// scheduler (cooperative, single-stepped, strategy-driven, with deadlock
// detection and liveness monitors).
//
// The command-line driver, test discovery, binary rewriting, coverage
// serialization, and wall-clock timer integration are out of scope for this
// package; see cmd/systest for a minimal CLI surface over the public API.
package systest
