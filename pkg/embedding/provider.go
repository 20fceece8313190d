package embedding

// EmbeddingProvider generates a vector for a chunk of document text.
// taskType hints retrieval vs indexing for providers that distinguish them.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}
