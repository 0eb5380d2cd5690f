package measure

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	s := NewSession(DefaultParams())
	s.Reset()
	return s
}

func TestProcessBeforeReset(t *testing.T) {
	s := NewSession(DefaultParams())

	score, measuring := s.Process(Sample{Z: 50})
	assert.False(t, measuring)
	assert.EqualValues(t, 0, score)

	// Inactive ingestion must not calibrate anything either.
	s.Reset()
	score, measuring = s.Process(Sample{Z: 9.81})
	require.True(t, measuring)
	assert.EqualValues(t, 0, score)
}

func TestFirstSampleCalibratesBaseline(t *testing.T) {
	// The first sample sets the baseline and never scores, however
	// violent the reading is.
	for _, z := range []float64{9.81, 0, 50, -30} {
		s := newTestSession()
		score, measuring := s.Process(Sample{Z: z})
		require.True(t, measuring)
		assert.EqualValues(t, 0, score, "first sample z=%v must not score", z)
	}
}

func TestImpactAboveThreshold(t *testing.T) {
	s := newTestSession()
	s.Process(Sample{Z: 9.81}) // baseline 0

	score, measuring := s.Process(Sample{Z: 20})
	require.True(t, measuring)
	// magnitude 20, adjusted 10.19, relative 10.19 -> floor(10.19*100)
	assert.EqualValues(t, 1019, score)
}

func TestNoiseBelowThresholdIgnored(t *testing.T) {
	s := newTestSession()
	s.Process(Sample{Z: 9.81}) // baseline 0

	score, _ := s.Process(Sample{Z: 10.5}) // adjusted 0.69 <= 1.5
	assert.EqualValues(t, 0, score)

	score, _ = s.Current()
	assert.EqualValues(t, 0, score)
}

func TestNegativeRelativeImpactNeverScores(t *testing.T) {
	// Calibrate on a noisy rest position, then deliver a reading that
	// dips below the baseline. The score must stay put.
	s := newTestSession()
	s.Process(Sample{Z: 15}) // baseline 5.19

	score, _ := s.Process(Sample{Z: 9.81}) // adjusted 0, relative -5.19
	assert.EqualValues(t, 0, score)

	s.Process(Sample{Z: 30}) // push the score up
	before, _ := s.Current()
	require.Greater(t, before, int64(0))

	score, _ = s.Process(Sample{Z: 9.81})
	assert.Equal(t, before, score, "sub-baseline reading must not move the score")
}

func TestScoreIsMonotonic(t *testing.T) {
	s := newTestSession()
	s.Process(Sample{Z: 9.81})

	var last int64
	for _, z := range []float64{25, 40, 18, 30, 12, 40} {
		score, measuring := s.Process(Sample{Z: z})
		require.True(t, measuring)
		assert.GreaterOrEqual(t, score, last, "score regressed on z=%v", z)
		last = score
	}

	// Largest single impact wins: z=40 -> adjusted 30.19.
	assert.EqualValues(t, 3019, last)
}

func TestMagnitudeUsesAllAxes(t *testing.T) {
	s := newTestSession()
	s.Process(Sample{Z: 9.81})

	// 9-12-20 triple: magnitude 25, adjusted 15.19.
	score, _ := s.Process(Sample{X: 9, Y: 12, Z: 20})
	assert.EqualValues(t, 1519, score)
}

func TestResetIsIdempotent(t *testing.T) {
	s := newTestSession()
	s.Process(Sample{Z: 9.81})
	s.Process(Sample{Z: 25})
	score, _ := s.Current()
	require.Greater(t, score, int64(0))

	s.Reset()
	score, measuring := s.Current()
	assert.True(t, measuring)
	assert.EqualValues(t, 0, score)

	// The next sample calibrates a fresh baseline rather than scoring
	// against the old one.
	score, _ = s.Process(Sample{Z: 25})
	assert.EqualValues(t, 0, score)

	s.Reset()
	s.Reset()
	score, measuring = s.Current()
	assert.True(t, measuring)
	assert.EqualValues(t, 0, score)
}

func TestZeroAdjustedFirstSampleStillCalibrates(t *testing.T) {
	// A first sample whose adjusted magnitude is exactly zero must
	// count as calibration, not leave the session uncalibrated.
	s := newTestSession()
	score, _ := s.Process(Sample{Z: 9.81}) // adjusted exactly 0
	require.EqualValues(t, 0, score)

	// Were the baseline still unset, this strong impact would be
	// swallowed as calibration.
	score, _ = s.Process(Sample{Z: 20})
	assert.EqualValues(t, 1019, score)
}

func TestConcurrentIngestion(t *testing.T) {
	s := newTestSession()
	s.Process(Sample{Z: 9.81}) // baseline 0

	// Two "transports" hammer the session in parallel. The final score
	// must be the maximum over everything either of them delivered.
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(offset float64) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s.Process(Sample{Z: 12 + offset + float64(i%20)})
			}
		}(float64(w))
	}
	wg.Wait()

	// Strongest sample: z = 12+1+19 = 32 -> adjusted 22.19.
	score, measuring := s.Current()
	assert.True(t, measuring)
	assert.EqualValues(t, 2219, score)
}
