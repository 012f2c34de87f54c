package labeler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "drum keyword", filename: "acoustic_drum_loop_01.wav", want: LabelDrums},
		{name: "synth keys", filename: "synth_pad_chords.wav", want: LabelKeys},
		{name: "rock prefix inferred", filename: "rock_intro.wav", want: LabelKeys},
		{name: "no rule", filename: "xyz123.wav", want: LabelUnknown},
		{name: "case insensitive", filename: "SNARE_Hit.WAV", want: LabelDrums},
		{name: "guitar strum", filename: "Folk_Strum_120bpm.flac", want: LabelGuitar},
		{name: "drums win over guitar", filename: "guitar_and_drum_jam.wav", want: LabelDrums},
		{name: "rhythm without guitar", filename: "funk_rhythm_loop.wav", want: LabelKeys},
		{name: "ballad", filename: "slow_ballad.mp3", want: LabelKeys},
		{name: "rock prefix with drum", filename: "rock_drum_fill.wav", want: LabelDrums},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.filename))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		require.Equal(t, LabelKeys, Classify("warm_organ_pad.wav"))
	}
}

func TestExplain(t *testing.T) {
	res := Explain("rock_intro.wav")
	require.Equal(t, LabelKeys, res.Label)
	require.Equal(t, "rock_prefix", res.Rule)
	require.True(t, res.Inferred)

	res = Explain("piano_c4.wav")
	require.Equal(t, "keys_keywords", res.Rule)
	require.False(t, res.Inferred)

	res = Explain("field_recording.wav")
	require.Equal(t, LabelUnknown, res.Label)
	require.Equal(t, "fallback", res.Rule)
}
