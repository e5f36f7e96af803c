package governor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectModelAmpleVRAM(t *testing.T) {
	s := SelectModel(24, "auto", true)
	assert.Equal(t, ModelLarge, s.Model)
	assert.True(t, s.EnableDiarization)
	assert.GreaterOrEqual(t, s.MaxConcurrency, 1)
}

func TestSelectModelReducesConcurrencyFirst(t *testing.T) {
	s := SelectModel(6, "auto", true)
	assert.True(t, s.EnableDiarization, "concurrency should drop before diarization is touched")
	assert.Equal(t, 1, s.MaxConcurrency)
}

func TestSelectModelReducesModelSizeBeforeDiarization(t *testing.T) {
	s := SelectModel(7, "auto", true)
	assert.True(t, s.EnableDiarization)
	assert.NotEqual(t, ModelLarge, s.Model)
}

func TestSelectModelDisablesDiarizationAsLastResort(t *testing.T) {
	s := SelectModel(1.5, "auto", true)
	assert.False(t, s.EnableDiarization)
	assert.Equal(t, ModelTiny, s.Model)
}

func TestSelectModelHonorsUserPreference(t *testing.T) {
	s := SelectModel(24, "base", true)
	assert.Equal(t, ModelBase, s.Model)
}

func TestSelectModelBatchSizeScalesWithVRAM(t *testing.T) {
	low := SelectModel(3, "tiny", false)
	high := SelectModel(24, "tiny", false)
	assert.Less(t, low.BatchSize, high.BatchSize)
}
