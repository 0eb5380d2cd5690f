package measure

import (
	"math"
	"sync"
)

// Sample is a single raw accelerometer reading in m/s².
type Sample struct {
	X float64
	Y float64
	Z float64
}

// Params holds the scoring constants for a measurement session.
type Params struct {
	// Gravity is subtracted from the sample magnitude, assuming the
	// device is held in a fixed orientation.
	Gravity float64
	// NoiseThreshold is the minimum relative impact that counts as a
	// real event rather than ambient vibration.
	NoiseThreshold float64
	// PointScale converts relative impact into integer points.
	PointScale float64
}

// DefaultParams returns the stock scoring constants.
func DefaultParams() Params {
	return Params{
		Gravity:        9.81,
		NoiseThreshold: 1.5,
		PointScale:     100,
	}
}

// Session is the live measurement session: a noise baseline calibrated
// from the first sample, and the running maximum impact score.
//
// There is exactly one Session per process, fed concurrently by the
// HTTP and WebSocket ingestion paths, so every read or write of its
// state goes through the mutex. Process is the single entry point for
// both transports; scoring behavior never depends on which one
// delivered the sample.
type Session struct {
	params Params

	mu       sync.Mutex
	active   bool
	baseline *float64 // nil until the first sample calibrates it
	score    int64
}

// NewSession returns an inactive session. Call Reset to start measuring.
func NewSession(params Params) *Session {
	return &Session{params: params}
}

// Reset starts a new measurement: the session becomes active, the
// baseline is cleared and the score drops to zero. Resetting an active
// session discards its progress.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.baseline = nil
	s.score = 0
}

// Process applies one accelerometer sample and returns the running
// score. measuring is false when no session is active, in which case
// the sample is ignored.
//
// The first sample after Reset calibrates the baseline (the device's
// at-rest adjusted magnitude) and contributes no points. Later samples
// score floor(relative*PointScale) when their relative impact exceeds
// the noise threshold; the session keeps the maximum over all samples.
// A relative impact at or below the threshold — including a negative
// one, when the reading dips under the baseline — never changes the
// score.
func (s *Session) Process(smp Sample) (score int64, measuring bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return s.score, false
	}

	magnitude := math.Sqrt(smp.X*smp.X + smp.Y*smp.Y + smp.Z*smp.Z)
	adjusted := math.Abs(magnitude - s.params.Gravity)

	if s.baseline == nil {
		s.baseline = &adjusted
		s.score = 0
		return s.score, true
	}

	relative := adjusted - *s.baseline
	if relative > s.params.NoiseThreshold {
		candidate := int64(math.Floor(relative * s.params.PointScale))
		if candidate > s.score {
			s.score = candidate
		}
	}
	return s.score, true
}

// Current returns the running score without side effects.
func (s *Session) Current() (score int64, measuring bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, s.active
}
