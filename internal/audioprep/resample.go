package audioprep

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

func resampleChannel(samples []float32, from, to int) ([]float32, error) {
	if from == to || len(samples) == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("create resampler %d->%d: %w", from, to, err)
	}
	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s)
	}
	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample %d->%d: %w", from, to, err)
	}
	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("flush resampler %d->%d: %w", from, to, err)
	}
	output = append(output, tail...)
	// the flushed filter tail may overshoot the nominal length
	if want := expectedLength(len(samples), from, to); len(output) > want {
		output = output[:want]
	}
	out := make([]float32, len(output))
	for i, s := range output {
		out[i] = float32(s)
	}
	return out, nil
}

// expectedLength is the output length of n input frames, rounded up.
func expectedLength(n, from, to int) int {
	return int((int64(n)*int64(to) + int64(from) - 1) / int64(from))
}
