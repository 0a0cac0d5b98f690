package models

// Chunk is one retrievable passage from the offline corpus artifact.
// JSON field names follow the artifact format produced by embedtool
// ("chunk" / "page" / "pdf").
type Chunk struct {
	Text           string `json:"chunk"`
	Page           *int   `json:"page,omitempty"`
	SourceDocument string `json:"pdf,omitempty"`
}

// RetrievedChunk is a ranked view of a corpus chunk. Score is the dot
// product of unit-norm vectors, so it is cosine similarity in [-1, 1].
type RetrievedChunk struct {
	Text           string  `json:"text"`
	Score          float64 `json:"score"`
	Page           *int    `json:"page,omitempty"`
	SourceDocument string  `json:"source_document,omitempty"`
}

// RagAnswer is the output of one full pipeline invocation: the generated
// answer plus the chunks it was grounded on, in ranking order.
type RagAnswer struct {
	Answer    string           `json:"answer"`
	Retrieved []RetrievedChunk `json:"retrieved"`
}
