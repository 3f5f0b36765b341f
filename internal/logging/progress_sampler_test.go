package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProgressSamplerDefaults(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			assert.Equal(t, tt.wantSize, s.bucketSize)
			assert.Equal(t, -1, s.lastBucket)
		})
	}
}

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	assert.True(t, s.ShouldLog(1, 2, "loading"), "nil sampler always logs")
	s.Reset()
}

func TestProgressSamplerLabelChange(t *testing.T) {
	s := NewProgressSampler(50)

	assert.True(t, s.ShouldLog(0, 4, "loading entities"), "first label should log")
	assert.False(t, s.ShouldLog(1, 4, "loading entities"), "same label within bucket should not log again")
	assert.True(t, s.ShouldLog(1, 4, "classifying"), "label change should log")
	assert.Equal(t, "classifying", s.lastLabel)
}

func TestProgressSamplerBucketCrossing(t *testing.T) {
	s := NewProgressSampler(50)

	want := []bool{true, false, true, false, true}
	for step, expected := range want {
		assert.Equal(t, expected, s.ShouldLog(step, 4, ""), "step %d", step)
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := NewProgressSampler(10)
	assert.False(t, s.ShouldLog(3, 0, ""), "unknown total without label should not log")
	assert.True(t, s.ShouldLog(3, 0, "scanning"), "label should still log when total is unknown")
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(5, 10, "a")
	s.Reset()
	assert.Empty(t, s.lastLabel)
	assert.Equal(t, -1, s.lastBucket)
}
