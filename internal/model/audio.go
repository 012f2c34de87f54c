package model

type AudioFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Duration string `json:"duration,omitempty"`
}

type AudioEmbedding struct {
	FileName         string    `json:"fileName" msgpack:"file_name"`
	Embedding        []float32 `json:"embedding" msgpack:"embedding"`
	GroundTruthLabel string    `json:"groundTruthLabel" msgpack:"ground_truth_label"`
}

// CachedModelBundle is the persisted state of one model: every audio
// embedding and every query embedding computed by the last full run.
type CachedModelBundle struct {
	ModelName       string               `json:"modelName" msgpack:"model_name"`
	AudioEmbeddings []AudioEmbedding     `json:"audioEmbeddings" msgpack:"audio_embeddings"`
	TextEmbeddings  map[string][]float32 `json:"textEmbeddings" msgpack:"text_embeddings"`
	Timestamp       int64                `json:"timestamp" msgpack:"timestamp"`
}
