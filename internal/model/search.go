package model

type SearchResult struct {
	FileName   string    `json:"fileName"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Label      string    `json:"label"`
	Similarity float64   `json:"similarity"`
}

type SearchMatch struct {
	AudioFile  AudioFile `json:"audioFile"`
	Similarity float64   `json:"similarity"`
	Label      string    `json:"label"`
}

type SearchResponse struct {
	Success      bool          `json:"success"`
	Results      []SearchMatch `json:"results"`
	Query        string        `json:"query"`
	TotalResults int           `json:"totalResults"`
	Model        string        `json:"model"`
	NoMatch      bool          `json:"noMatch"`
}
