package audioprep

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

const wavFormatIEEEFloat = 3

// decodeWAV returns one float32 slice per channel in [-1, 1] and the source
// sample rate.
func decodeWAV(raw []byte) ([][]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, 0, fmt.Errorf("read wav header: %v: %w", err, appErr.ErrUnsupportedFormat)
	}
	if dec.NumChans < 1 || dec.SampleRate == 0 {
		return nil, 0, fmt.Errorf("wav header without channels or rate: %w", appErr.ErrUnsupportedFormat)
	}
	isFloat := dec.WavAudioFormat == wavFormatIEEEFloat
	if isFloat && dec.BitDepth != 32 {
		return nil, 0, fmt.Errorf("float wav with %d bits: %w", dec.BitDepth, appErr.ErrUnsupportedFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read wav pcm: %v: %w", err, appErr.ErrUnsupportedFormat)
	}
	channels, err := splitChannels(buf, int(dec.BitDepth), isFloat)
	if err != nil {
		return nil, 0, err
	}
	return channels, int(dec.SampleRate), nil
}

func splitChannels(buf *audio.IntBuffer, bitDepth int, isFloat bool) ([][]float32, error) {
	conv, err := sampleConverter(bitDepth, isFloat)
	if err != nil {
		return nil, err
	}
	numChans := buf.Format.NumChannels
	frames := len(buf.Data) / numChans
	channels := make([][]float32, numChans)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			channels[ch][i] = conv(buf.Data[i*numChans+ch])
		}
	}
	return channels, nil
}

func sampleConverter(bitDepth int, isFloat bool) (func(int) float32, error) {
	if isFloat {
		return func(v int) float32 {
			return math.Float32frombits(uint32(int32(v)))
		}, nil
	}
	switch bitDepth {
	case 8:
		return func(v int) float32 { return float32(v-128) / 128 }, nil
	case 16:
		return func(v int) float32 { return float32(v) / 32768 }, nil
	case 24:
		return func(v int) float32 { return float32(v) / 8388608 }, nil
	case 32:
		return func(v int) float32 { return float32(float64(v) / 2147483648) }, nil
	default:
		return nil, fmt.Errorf("pcm bit depth %d: %w", bitDepth, appErr.ErrUnsupportedFormat)
	}
}
