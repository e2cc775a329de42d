package systest

import (
	"time"

	"github.com/joeycumines/go-systest/logging"
	"github.com/joeycumines/go-systest/strategy"
	"github.com/joeycumines/go-systest/trace"
)

// config is the resolved, immutable snapshot an option set builds: options
// are functions applied in order to a mutable builder, then frozen.
type config struct {
	strategy strategy.Strategy
	seed int64
	maxUnfairSchedulingSteps uint64
	maxFairSchedulingSteps uint64
	considerDepthBoundHitAsBug bool
	reportPotentialDeadlocksAsBug bool
	systematicFuzzingFallback bool
	livenessTemperatureThreshold int
	deadlockTimeout time.Duration
	testingTimeout time.Duration
	logger logging.Logger
	hooks Hooks
	clock Clock
	recorder trace.Recorder
}

func defaultConfig() *config {
	return &config{
		seed: 1,
		maxUnfairSchedulingSteps: 10000,
		maxFairSchedulingSteps: 100000,
		reportPotentialDeadlocksAsBug: true,
		livenessTemperatureThreshold: 100,
		deadlockTimeout: 5 * time.Second,
		testingTimeout: 0,
		logger: logging.NewNop(),
	}
}

// RuntimeOption configures a [Runtime] at construction time via the
// functional-options pattern.
type RuntimeOption func(*config)

// WithStrategy selects the scheduling strategy.
func WithStrategy(s strategy.Strategy) RuntimeOption {
	return func(c *config) { c.strategy = s }
}

// WithSeed sets the scheduling RNG seed; identical seed, strategy, and step
// bound must produce identical interleavings.
func WithSeed(seed int64) RuntimeOption {
	return func(c *config) { c.seed = seed }
}

// WithMaxUnfairSchedulingSteps bounds unfair-strategy iterations.
func WithMaxUnfairSchedulingSteps(n uint64) RuntimeOption {
	return func(c *config) { c.maxUnfairSchedulingSteps = n }
}

// WithMaxFairSchedulingSteps bounds fair-strategy iterations.
func WithMaxFairSchedulingSteps(n uint64) RuntimeOption {
	return func(c *config) { c.maxFairSchedulingSteps = n }
}

// WithConsiderDepthBoundHitAsBug makes hitting the step bound without
// completion a reported bug rather than a clean iteration end.
func WithConsiderDepthBoundHitAsBug(v bool) RuntimeOption {
	return func(c *config) { c.considerDepthBoundHitAsBug = v }
}

// WithReportPotentialDeadlocksAsBugs controls whether a pause caused by
// partially-controlled concurrency is reported as a bug or a warning.
func WithReportPotentialDeadlocksAsBugs(v bool) RuntimeOption {
	return func(c *config) { c.reportPotentialDeadlocksAsBug = v }
}

// WithSystematicFuzzingFallback enables degrading uncontrolled concurrency
// to fuzzing instead of reporting it.
func WithSystematicFuzzingFallback(v bool) RuntimeOption {
	return func(c *config) { c.systematicFuzzingFallback = v }
}

// WithLivenessTemperatureThreshold sets the fair-monitor hot-state bound.
func WithLivenessTemperatureThreshold(n int) RuntimeOption {
	return func(c *config) { c.livenessTemperatureThreshold = n }
}

// WithDeadlockTimeout sets the wall-clock iteration deadlock timeout.
func WithDeadlockTimeout(d time.Duration) RuntimeOption {
	return func(c *config) { c.deadlockTimeout = d }
}

// WithTestingTimeout sets the wall-clock whole-iteration timeout.
func WithTestingTimeout(d time.Duration) RuntimeOption {
	return func(c *config) { c.testingTimeout = d }
}

// WithLogger wires a structured logger; a nil logger resolves to a no-op.
func WithLogger(l logging.Logger) RuntimeOption {
	return func(c *config) {
		if l == nil {
			l = logging.NewNop()
		}
		c.logger = l
	}
}

// WithHooks installs host lifecycle callbacks.
func WithHooks(h Hooks) RuntimeOption {
	return func(c *config) { c.hooks = h }
}

// WithClock overrides the virtual clock timers are scheduled against.
func WithClock(clk Clock) RuntimeOption {
	return func(c *config) { c.clock = clk }
}

// WithTrace wires a trace recorder at construction time, equivalent to
// calling (*Runtime).WithTrace immediately after NewRuntime. Letting a
// recorder be supplied as an option (rather than only post-construction)
// lets a caller that only gets to hand back options — such as
// RunRegisteredTest's per-iteration opts callback — attach one too.
func WithTrace(r trace.Recorder) RuntimeOption {
	return func(c *config) { c.recorder = r }
}

func resolveConfig(opts []RuntimeOption) *config {
	c := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.strategy == nil {
		c.strategy = strategy.NewRandom(c.seed)
	}
	return c
}
