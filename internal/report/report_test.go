package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/samplesearch/internal/model"
)

func sampleReport() *model.EmbeddingReport {
	return &model.EmbeddingReport{
		Model: "laion/larger_clap_music",
		EmbeddingPoints: []model.EmbeddingPoint{
			{ID: "1", X: 0.1, Y: -0.1, Label: "drums"},
		},
		ConfusionMatrixData: []model.ConfusionMatrixRow{
			{Predicted: "drums", Counts: map[string]int{"drums": 2, "keys": 0}},
			{Predicted: "keys", Counts: map[string]int{"drums": 1, "keys": 3}},
		},
		EvalMetrics: []model.EvalMetric{
			{Label: "Accuracy", Value: 0.83},
			{Label: "F1-Score", Value: 0.83},
		},
		Skipped:           []model.SkippedFile{{Name: "loop|1.mp3", Reason: "unsupported audio format"}},
		Excluded:          []string{"field_recording.wav"},
		LabelDistribution: []model.LabelCount{{Label: "drums", Count: 2}, {Label: "keys", Count: 4}},
		Ctime:             1700000000000,
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())
	require.Contains(t, md, "# Evaluation report: laion/larger_clap_music")
	require.Contains(t, md, "| Accuracy | 0.83 |")
	require.Contains(t, md, "| actual | drums | keys |")
	require.Contains(t, md, "| keys | 1 | 3 |")
	require.Contains(t, md, "- field_recording.wav")
	require.Contains(t, md, `loop\|1.mp3`)
	require.Contains(t, md, "2023-11-14T22:13:20Z")
}

func TestRenderHTML(t *testing.T) {
	out, err := NewRenderer().Render(sampleReport())
	require.NoError(t, err)
	require.Contains(t, out, "<title>Evaluation report: laion/larger_clap_music</title>")
	require.Contains(t, out, "<table>")
	require.Contains(t, out, "<td>0.83</td>")
	require.Contains(t, out, "<h2")
}
