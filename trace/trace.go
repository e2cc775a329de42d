// Package trace records and replays controlled-runtime scheduling
// decisions: a reproducible trace is a sequence of per-scheduling-point
// tuples; replaying a trace asserts each observed (point-kind, current-op)
// matches the recorded one and returns the recorded chosen-op, reporting
// the first disagreement as a fatal error.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
)

// TraceFormatVersion identifies the on-disk trace schema, so future format
// changes don't silently break replay of older traces.
const TraceFormatVersion = 1

// Step is one scheduling-point record.
type Step struct {
	Step uint64 `json:"step"`
	Kind string `json:"kind"`
	CurrentOp uint64 `json:"currentOp"`
	ChosenOp uint64 `json:"chosenOp"`
}

// NondetChoice is one recorded nondeterministic-choice value, keyed by the
// order it occurred in.
type NondetChoice struct {
	Kind string `json:"kind"`
	Value any `json:"value"`
}

// File is the persisted trace format: a versioned header, an iteration
// seed, one Step per scheduling point, and the nondeterministic choices
// made along the way.
type File struct {
	Version int `json:"version"`
	Seed int64 `json:"seed"`
	Steps []Step `json:"steps"`
	Nondet []NondetChoice `json:"nondet"`
}

// Recorder observes every scheduling point and nondeterministic choice. The
// controlled runtime calls it; a replaying strategy consumes its output via
// Replayer instead of driving live randomness.
type Recorder interface {
	RecordStep(s Step)
	RecordNondet(kind string, value any)
}

// InMemoryRecorder accumulates a File in memory, for callers that persist
// it themselves (e.g. the CLI's `test` subcommand writing a .trace file).
type InMemoryRecorder struct {
	File File
}

// NewInMemoryRecorder constructs a recorder seeded for the iteration about
// to run.
func NewInMemoryRecorder(seed int64) *InMemoryRecorder {
	return &InMemoryRecorder{File: File{Version: TraceFormatVersion, Seed: seed}}
}

func (r *InMemoryRecorder) RecordStep(s Step) { r.File.Steps = append(r.File.Steps, s) }

func (r *InMemoryRecorder) RecordNondet(kind string, value any) {
	r.File.Nondet = append(r.File.Nondet, NondetChoice{Kind: kind, Value: value})
}

// WriteTo serializes the recorded file as JSON: the Go-native equivalent of
// a "versioned header + records" trace format.
func (r *InMemoryRecorder) WriteTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(r.File)
}

// ReadFile deserializes a trace file previously written by WriteTo.
func ReadFile(r io.Reader) (File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return File{}, err
	}
	if f.Version != TraceFormatVersion {
		return File{}, fmt.Errorf("trace: unsupported format version %d (want %d)", f.Version, TraceFormatVersion)
	}
	return f, nil
}

// DivergenceError reports the first scheduling point at which a replay
// disagreed with the recorded trace.
type DivergenceError struct {
	StepIndex int
	Expected Step
	Got Step
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("trace: replay diverged at step %d: expected %+v, got %+v", e.StepIndex, e.Expected, e.Got)
}

// Replayer replaces live strategy choices with recorded ones: each call
// asserts the observed (kind, currentOp) matches the next recorded Step and
// returns its chosen-op, or each nondet call returns the next recorded
// choice. Divergence is reported once, on the first disagreement, and every
// subsequent call keeps returning the stored divergence.
type Replayer struct {
	file File
	stepIdx int
	nondetIdx int
	diverged *DivergenceError
}

// NewReplayer constructs a Replayer over a previously-recorded file.
func NewReplayer(f File) *Replayer { return &Replayer{file: f} }

// Err returns the first divergence encountered, if any.
func (p *Replayer) Err() error {
	if p.diverged != nil {
		return p.diverged
	}
	return nil
}

// Next returns the next recorded step's chosen-op, asserting that kind and
// currentOp match what was recorded.
func (p *Replayer) Next(kind string, currentOp uint64) (chosenOp uint64, ok bool) {
	if p.diverged != nil {
		return 0, false
	}
	if p.stepIdx >= len(p.file.Steps) {
		return 0, false
	}
	want := p.file.Steps[p.stepIdx]
	got := Step{Step: want.Step, Kind: kind, CurrentOp: currentOp}
	if got.Kind != want.Kind || got.CurrentOp != want.CurrentOp {
		p.diverged = &DivergenceError{StepIndex: p.stepIdx, Expected: want, Got: got}
		return 0, false
	}
	p.stepIdx++
	return want.ChosenOp, true
}

// NextNondet returns the next recorded nondeterministic-choice value.
func (p *Replayer) NextNondet() (any, bool) {
	if p.nondetIdx >= len(p.file.Nondet) {
		return nil, false
	}
	v := p.file.Nondet[p.nondetIdx]
	p.nondetIdx++
	return v.Value, true
}
