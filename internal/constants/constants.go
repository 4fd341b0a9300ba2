// Package constants provides named constants used throughout the phasebridge
// codebase. This centralizes tuning values for better maintainability and
// documentation. Decimal values that feed the precision layer are kept as
// strings so they can be parsed at the configured working precision instead
// of passing through float64.
package constants

// Oscillator dynamics constants. These match the analog reference tuning and
// must not be changed without re-deriving the consensus epsilon.
const (
	// Gamma is the amplitude damping coefficient in dA/dt = -Gamma*psi + coupling.
	Gamma = "0.02"

	// Lambda is the per-step amplitude decay exponent: |psi| *= exp(-Lambda*dt).
	Lambda = "0.05"

	// SaturationLimit caps dimension amplitudes after each step.
	SaturationLimit = "1e6"

	// NoiseSigma scales the symmetric per-step amplitude noise.
	NoiseSigma = "0.01"

	// CouplingK is the global phase coupling strength.
	CouplingK = "1.0"

	// AdaptThreshold is the amplitude above which the adaptive step size grows.
	// Below AdaptThreshold/GoldenRatio the step size shrinks.
	AdaptThreshold = "0.8"

	// GoldenRatio is the adaptive step size multiplier.
	GoldenRatio = "1.6180339887498948"

	// LinkDamping is applied to every neighbor link charge before integration.
	LinkDamping = "0.95"

	// MinStepSize and MaxStepSize clamp the adaptive integration step.
	MinStepSize = "1e-6"
	MaxStepSize = "0.1"

	// InitialStepSize is 1/32768, the step size a fresh integrator starts with.
	InitialStepSize = "0.000030517578125"

	// AmplitudeFloor guards divisions by near-zero amplitudes.
	AmplitudeFloor = "1e-10"

	// AmplitudeRatioMin and AmplitudeRatioMax clamp the neighbor amplitude
	// ratio before the coupling correlation is computed.
	AmplitudeRatioMin = "1e-3"
	AmplitudeRatioMax = "1e3"

	// CorrelationCap bounds the coupling correlation exponent.
	CorrelationCap = "10"
)

// Consensus detection constants.
const (
	// ConsensusEpsilon is the phase variance threshold below which the
	// detector counts a step toward consensus.
	ConsensusEpsilon = "1e-6"

	// ConsensusSteps is the number of consecutive low-variance detector
	// invocations required before the state locks.
	ConsensusSteps = 100

	// InitialPhaseVariance is the variance a fresh state reports before the
	// detector has run.
	InitialPhaseVariance = "1e6"
)

// Checkpoint constants.
const (
	// CheckpointInterval is the number of evolution steps between persisted
	// snapshots.
	CheckpointInterval = 100

	// SnapshotMax is the checkpoint manager capacity. Adding beyond this
	// evicts the lowest-weight snapshot.
	SnapshotMax = 10

	// SnapshotDecay is the multiplicative weight decay applied to every
	// other snapshot when a new one is added.
	SnapshotDecay = 0.95
)

// Real-time pacing constants.
const (
	// StepIntervalNS is the minimum wall-clock duration of one evolution
	// step (~30.517 milliseconds), preserving the analog reference's nominal
	// interval. Pacing is soft: a late step is not an error, it just starts
	// the next interval immediately.
	StepIntervalNS = 30517000

	// TargetStepBudgetNS is the per-step compute budget the timing monitor
	// measures margin against.
	TargetStepBudgetNS = 30518

	// SyncIntervalNS is the wall-clock interval between state synchronizer
	// audits (1 second).
	SyncIntervalNS = 1_000_000_000
)

// Timing monitor thresholds.
const (
	// JitterThreshold is the maximum acceptable stddev/mean ratio of step
	// durations before the monitor flags jitter.
	JitterThreshold = 0.01

	// TimingMarginMin is the minimum acceptable fraction of the step budget
	// left unused.
	TimingMarginMin = 0.2

	// TimingWindow is the number of step duration samples retained.
	TimingWindow = 100
)

// Seed bases for deterministic initialization. Frequencies and phases of a
// fresh state are derived from these offsets so that every process seeds the
// same lattice.
const (
	FreqSeedBase  = 42
	PhaseSeedBase = 100
)

// DefaultPrecision is the working precision of the arithmetic layer in
// significant decimal digits.
const DefaultPrecision = 100

// Lattice shape constants.
const (
	// Dimensions is the number of complex oscillator dimensions. The
	// integrator, detector, and serializer all assume exactly this many.
	Dimensions = 8

	// MaxTapeSize bounds the payload tape folded into dimension 7.
	MaxTapeSize = 8
)

// StatusHistoryMax caps the published phase variance time series.
const StatusHistoryMax = 100

// AmplitudeSanityBound is the synchronizer's upper bound on any dimension
// amplitude. Exceeding it is logged as a state consistency violation.
const AmplitudeSanityBound = "1e10"
