// Package audioprep turns encoded audio into the mono float buffer the
// encoder consumes.
package audioprep

import (
	"fmt"
	"math"

	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

const DefaultTargetSampleRate = 48000

type MonoBuffer struct {
	Samples    []float32
	SampleRate int
}

type Conditioner struct {
	targetRate int
}

func NewConditioner(targetRate int) *Conditioner {
	if targetRate <= 0 {
		targetRate = DefaultTargetSampleRate
	}
	return &Conditioner{targetRate: targetRate}
}

func (c *Conditioner) TargetRate() int {
	return c.targetRate
}

// Condition decodes raw, resamples every channel to the target rate and
// folds the result down to mono.
func (c *Conditioner) Condition(raw []byte) (*MonoBuffer, error) {
	if len(raw) == 0 {
		return nil, appErr.ErrEmptyAudio
	}
	channels, rate, err := decodeWAV(raw)
	if err != nil {
		return nil, err
	}
	return c.ConditionPCM(channels, rate)
}

func (c *Conditioner) ConditionPCM(channels [][]float32, sampleRate int) (*MonoBuffer, error) {
	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, appErr.ErrEmptyAudio
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d: %w", sampleRate, appErr.ErrInvalid)
	}
	if len(channels) > 2 {
		channels = channels[:2]
	}
	resampled := make([][]float32, len(channels))
	for i, ch := range channels {
		out, err := resampleChannel(ch, sampleRate, c.targetRate)
		if err != nil {
			return nil, err
		}
		resampled[i] = out
	}
	mono := Downmix(resampled)
	if len(mono) == 0 {
		return nil, appErr.ErrEmptyAudio
	}
	return &MonoBuffer{Samples: mono, SampleRate: c.targetRate}, nil
}

// Downmix folds the first two channels with sqrt(2)*(l+r)/2. A single
// channel is returned as a copy. Extra channels are ignored.
func Downmix(channels [][]float32) []float32 {
	switch len(channels) {
	case 0:
		return nil
	case 1:
		out := make([]float32, len(channels[0]))
		copy(out, channels[0])
		return out
	}
	left, right := channels[0], channels[1]
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(math.Sqrt2 * float64(left[i]+right[i]) / 2)
	}
	return out
}
