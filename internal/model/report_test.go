package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfusionMatrixRowJSON(t *testing.T) {
	row := ConfusionMatrixRow{Predicted: "drums", Counts: map[string]int{"keys": 1, "Drums": 2, "guitar": 0}}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	require.Equal(t, `{"predicted":"drums","drums":2,"guitar":0,"keys":1}`, string(data))

	var decoded ConfusionMatrixRow
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "drums", decoded.Predicted)
	require.Equal(t, map[string]int{"drums": 2, "guitar": 0, "keys": 1}, decoded.Counts)

	require.Error(t, json.Unmarshal([]byte(`{"predicted":"keys","drums":"x"}`), &decoded))
}

func TestReportRowsInsideReport(t *testing.T) {
	rep := EmbeddingReport{
		Model:               "laion/clap-htsat-unfused",
		ConfusionMatrixData: []ConfusionMatrixRow{{Predicted: "keys", Counts: map[string]int{"keys": 3}}},
	}
	data, err := json.Marshal(rep)
	require.NoError(t, err)
	require.Contains(t, string(data), `"confusionMatrixData":[{"predicted":"keys","keys":3}]`)
}
