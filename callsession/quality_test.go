package callsession

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLossBands(t *testing.T) {
	cases := []struct {
		ratio float64
		want  Quality
	}{
		{0.0, QualityExcellent},
		{0.009, QualityExcellent},
		{0.01, QualityGood}, // sınır üst (kötü) banda düşer
		{0.02, QualityGood},
		{0.049, QualityGood},
		{0.05, QualityPoor},
		{0.10, QualityPoor},
		{1.0, QualityPoor},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyLoss(c.ratio), "ratio=%v", c.ratio)
	}
}

type scriptedStats struct {
	mu             sync.Mutex
	lost, received uint32
	ok             bool
}

func (s *scriptedStats) InboundVideoStats() (uint32, uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost, s.received, s.ok
}

func (s *scriptedStats) set(lost, received uint32, ok bool) {
	s.mu.Lock()
	s.lost = lost
	s.received = received
	s.ok = ok
	s.mu.Unlock()
}

func TestSamplerFiresOnlyOnBandChange(t *testing.T) {
	stats := &scriptedStats{}
	var fired []Quality
	sampler := newQualitySampler(stats, 0, func(q Quality) { fired = append(fired, q) })
	t.Cleanup(sampler.Stop)

	// İstatistik yokken ölçüm atlanır, bant başlangıçta excellent kalır.
	sampler.sample()
	assert.Equal(t, QualityExcellent, sampler.Current())
	assert.Empty(t, fired)

	// %0 kayıp: bant excellent'ta kalır, callback tetiklenmez.
	stats.set(0, 1000, true)
	sampler.sample()
	assert.Empty(t, fired)

	// %3 kayıp: good'a geçiş tek bir callback üretir.
	stats.set(30, 970, true)
	sampler.sample()
	require.Equal(t, []Quality{QualityGood}, fired)
	assert.Equal(t, QualityGood, sampler.Current())

	// Aynı bantta kalan ikinci ölçüm callback üretmez.
	stats.set(40, 960, true)
	sampler.sample()
	assert.Len(t, fired, 1)

	// %10 kayıp: poor'a geçiş.
	stats.set(100, 900, true)
	sampler.sample()
	assert.Equal(t, []Quality{QualityGood, QualityPoor}, fired)
}

func TestSamplerStopIdempotent(t *testing.T) {
	sampler := newQualitySampler(&scriptedStats{}, 0, nil)
	sampler.Start()
	sampler.Stop()
	sampler.Stop()
}
