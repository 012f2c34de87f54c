package model

type QueryEmbeddingCache struct {
	ModelName string    `json:"model_name"`
	QueryHash string    `json:"query_hash"`
	Query     string    `json:"query"`
	Embedding []float32 `json:"embedding"`
	Ctime     int64     `json:"ctime"`
}
